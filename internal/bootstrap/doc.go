// Package bootstrap establishes the commissaire namespace in a
// hierarchical store and verifies the result.
//
// PIPELINE:
//
//	Start -> Creating -> Verifying -> Done
//	            |            |
//	            +-> Failed <-+
//
// Creating issues one CreateDirectory per plan entry. Entries are siblings
// under the root prefix and independent of each other, so they run on an
// errgroup bounded by Options.Concurrency. The first fatal error cancels
// the group: requests not yet issued are reported as skipped and nothing
// already created is rolled back.
//
// Verifying starts only after every create has resolved. It lists the
// root prefix recursively and checks that every planned directory is
// present. It never writes.
//
// ERROR CLASSES:
//
// store.AlreadyExists is success. Errors of kind store.KindTransient are
// retried with exponential backoff up to RetryPolicy.MaxAttempts. Every
// other error aborts the run and is returned wrapped in *EntryError or
// *PhaseError so the operator sees which entry and which operation failed.
//
// Re-running a bootstrap is always safe: it only adds what is missing.
package bootstrap
