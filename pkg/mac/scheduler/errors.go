/*
Copyright 2025 The Kubernetes Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package scheduler

import "errors"

var (
	// ErrMissingDependency indicates a nil collaborator at construction time.
	// A scheduler cannot run without its full dependency set; construction fails
	// rather than degrading silently.
	ErrMissingDependency = errors.New("missing scheduler dependency")

	// ErrMissingRandomSource indicates that no seedable random source was
	// injected. Tie-breaking must come from a per-run seeded generator to keep
	// simulation runs reproducible.
	ErrMissingRandomSource = errors.New("missing random source")

	// ErrTickInProgress indicates PrepareSchedule (or a set mutation) was called
	// before the previous tick was committed.
	ErrTickInProgress = errors.New("scheduling tick already in progress")

	// ErrTickNotPrepared indicates CommitSchedule was called without a preceding
	// PrepareSchedule.
	ErrTickNotPrepared = errors.New("no prepared schedule to commit")
)
