// Package compute provides the data-parallel dispatch used by the kernels.
//
// A [Backend] splits the index range [0, n) into contiguous chunks and runs
// them concurrently, returning only when every chunk has finished. That
// return is the barrier between the velocity pass and the position pass:
//
//	be := compute.NewCPUBackend(0) // one lane per CPU
//	be.ParallelFor(n, func(start, end int) {
//	    for i := start; i < end; i++ {
//	        out[i] = f(in, i)
//	    }
//	})
//
// Callers must only write indices inside their own chunk and must not read
// what another chunk writes in the same call.
package compute
