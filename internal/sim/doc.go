// Package sim defines the primitives shared by the cruise-control
// simulation packages:
//
//   - [State], [Input]: float64 vectors with validity checks
//   - [System]: continuous-time input/output system with named ports
//   - [Feedthrough]: marker for direct input-to-output coupling
//
// Concrete plants live in the vehicle package, linear blocks in tf, and
// closed-loop assemblies in loop. Integration and equilibrium finding are
// built on top of [System] in the integrators and trim packages.
package sim
