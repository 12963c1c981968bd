// Package fakes provides in-memory fake AWS SDK clients for testing.
//
// Each fake implements the narrow client interface its consumer declares
// (repository.S3API, crypto.KMSAPI, stack.CloudFormationAPI, vault.STSAPI)
// and supports per-call overrides via XxxFunc fields plus call counters
// for asserting that idempotent paths stay mutation-free.
package fakes
