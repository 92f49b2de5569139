// Package host runs WASM guest modules against the security core. It
// owns the wazero runtime, installs the bridged host functions, and
// speaks the packed pointer/length calling convention on guest exports.
// Every bridged call a guest makes from here goes through the
// enforcement pipeline under the principal the guest was started with.
package host
