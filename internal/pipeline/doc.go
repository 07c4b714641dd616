// Package pipeline runs a harvest as an ordered list of steps over one
// model.HarvestReport.
//
// A harvest crawls a channel, extracts and validates share-links, names
// them, optionally tags them with country flags, builds the verified
// output artifacts and records the run. Each stage is a Step; the report
// carries all per-run state from one step to the next, so nothing is kept
// in package-level variables.
//
// Steps never write files. The caller writes the artifacts once Execute
// has returned without error, which keeps a failed self-check from
// leaving partial output behind.
package pipeline
