/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package pipeline

// State is a step of a pipeline run.
type State string

// A run moves through these states in order. StateError is terminal and can
// be entered from any state before StateAggregated.
const (
	StateInit         State = "INIT"
	StateCloned       State = "CLONED"
	StateSummarized   State = "SUMMARIZED"
	StateFilesLocated State = "FILES_LOCATED"
	StateTransforming State = "TRANSFORMING"
	StateAggregated   State = "AGGREGATED"
	StatePublished    State = "PUBLISHED"
	StateDone         State = "DONE"
	StateError        State = "ERROR"
)

// StateObserver is told about every transition of a run.
type StateObserver func(State)
