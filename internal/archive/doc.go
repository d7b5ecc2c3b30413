// Package archive turns a set of input files into a single invocation of
// the external 7-Zip archiver and runs it.
//
// A [Request] goes through three explicitly typed stages: the caller's
// [Request], the normalized [Resolved] request and the [Command] argument
// vector. [Service.Create] runs the command synchronously and reports the
// archiver's termination status as a [Result] or an [*ArchiverError].
package archive
