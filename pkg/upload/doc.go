// Package upload provides sinks for the chunk data of an MDS session.
//
// HTTPUploader posts each chunk to the device's data URI, the way the
// Memfault chunks endpoint expects it. S3Archiver keeps a copy of every
// chunk in an S3 bucket. Tee fans one chunk out to several sinks.
//
// All sinks satisfy session.Sink and are called synchronously from the
// session's pipeline. None of them retries: a failed chunk is reported once
// and counted.
package upload
