// Package platform provides the OS-specific implementations of the power
// assertion and input injection interfaces consumed by the presence loop.
//
// Construction is cheap and never fails on a supported OS; availability of
// the underlying mechanisms surfaces as errors from Acquire and the injector
// calls, which the loop treats as non-fatal warnings.
package platform
