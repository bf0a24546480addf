/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package operations

import "sync"

// Recorder is a Manager that keeps every operation it receives, in order.
type Recorder struct {
	mu  sync.Mutex
	ops []Operation
}

var _ Manager = (*Recorder)(nil)

func (r *Recorder) record(op Operation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, op)
}

// Operations returns a copy of the recorded operations.
func (r *Recorder) Operations() []Operation {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Operation, len(r.ops))
	copy(out, r.ops)
	return out
}

// Reset drops everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = nil
}

func (r *Recorder) AddTable(op AddTable)         { r.record(op) }
func (r *Recorder) DropTable(op DropTable)       { r.record(op) }
func (r *Recorder) RenameTable(op RenameTable)   { r.record(op) }
func (r *Recorder) AddColumn(op AddColumn)       { r.record(op) }
func (r *Recorder) DropColumn(op DropColumn)     { r.record(op) }
func (r *Recorder) RenameColumn(op RenameColumn) { r.record(op) }
func (r *Recorder) AlterColumn(op AlterColumn)   { r.record(op) }
