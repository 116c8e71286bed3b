// Package core provides the business logic for merging tabular files.
//
// This package contains all domain logic independent of any UI or transport
// layer. It is used by the web handlers, the mergeplan CLI and tests
// without modification.
//
// # Merge Engine
//
// A merge step joins a right-hand table onto a left-hand one in five
// stages, all run on clones so inputs are never changed:
//
//  1. [NormalizeKey] rewrites both key columns as trimmed strings.
//  2. [ValidateUniqueKey] refuses right-hand keys that repeat.
//  3. [ResolveCollisions] suffixes right-hand column names that clash.
//  4. [Join] performs a LEFT_OUTER or INNER lookup join.
//  5. The [Workflow] commits the result into a [MergeState].
//
// [MergeTables] runs stages 1 to 4; [Workflow.InitiateMerge] and
// [Workflow.AddSource] add the state transitions:
//
//	state := core.NewMergeState()
//	wf := core.NewWorkflow(registry)
//	_, err := wf.InitiateMerge(state, a.ID, b.ID, core.JoinRequest{
//	    LeftKey: "ID", RightKey: "ID", Mode: core.LeftOuter,
//	})
//
// A failed step leaves the state exactly as it was. Removing a source that
// backs the working table resets the state, as does [Workflow.Reset].
//
// # Ingestion
//
// [LoadFile] turns uploaded bytes into a [Source]: delimited text passes
// through [DecodeForParsing] (UTF-16 and BOM handling, UTF-8 repair), xlsx
// workbooks are read with excelize. Columns are typed by sampling and rows
// missing a required column are dropped.
//
// # Sessions
//
// [Service] holds many sessions, each with its own [SourceRegistry] and
// [MergeState], and serializes actions per session.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Codes are grouped by category: MRG (merge), VAL (validation), FILE,
// SES (session), EXP (export), DB, UPL and RATE.
package core
