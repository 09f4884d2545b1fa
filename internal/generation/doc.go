// Package generation turns a prompt into image URLs. It defines the Driver
// boundary to the browser automation that performs one attempt, the error
// taxonomy drivers report, and the Worker that runs a bounded retry loop
// over attempts and folds the last error into a Failure outcome.
package generation
