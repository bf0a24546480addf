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

package differ

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/AlecAivazis/survey/v2"
)

// InputFunc answers a rename confirmation prompt.
type InputFunc func(prompt string) (string, error)

// Affirmative reports whether answer confirms a prompt.
func Affirmative(answer string) bool {
	return strings.ToLower(strings.TrimSpace(answer)) == "y"
}

// AutoInput answers every prompt with the same answer.
func AutoInput(answer string) InputFunc {
	return func(string) (string, error) {
		return answer, nil
	}
}

// ReaderInput writes each prompt to w and reads one line of r as the
// answer. End of input answers with whatever was read so far.
func ReaderInput(r io.Reader, w io.Writer) InputFunc {
	var mu sync.Mutex
	reader := bufio.NewReader(r)
	return func(prompt string) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if _, err := fmt.Fprint(w, prompt+" "); err != nil {
			return "", err
		}
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
}

// SurveyInput asks each prompt on the terminal.
func SurveyInput(opts ...survey.AskOpt) InputFunc {
	return func(prompt string) (string, error) {
		var answer string
		if err := survey.AskOne(&survey.Input{Message: prompt}, &answer, opts...); err != nil {
			return "", err
		}
		return answer, nil
	}
}

func (f InputFunc) confirm(prompt string) (bool, error) {
	answer, err := f(prompt)
	if err != nil {
		return false, fmt.Errorf("failed to confirm rename: %w", err)
	}
	return Affirmative(answer), nil
}
