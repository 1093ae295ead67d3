// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package extraction

import "strings"

// stripCodeFence removes a surrounding markdown code fence, with or
// without a json language tag.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// repairJSON fixes the two mistakes models make most often in object
// mode: a key that lost its opening quote (`{title": ...`) and a comma
// before a closing bracket. Text inside string literals is left alone.
func repairJSON(s string) string {
	src := []rune(s)
	out := make([]rune, 0, len(src)+16)
	inString := false
	// expectKey is true right after '{' or ',' outside a string.
	expectKey := false

	for i := 0; i < len(src); i++ {
		ch := src[i]

		if inString {
			out = append(out, ch)
			switch ch {
			case '\\':
				if i+1 < len(src) {
					i++
					out = append(out, src[i])
				}
			case '"':
				inString = false
			}
			continue
		}

		switch {
		case ch == '"':
			inString = true
			expectKey = false
			out = append(out, ch)

		case ch == '{' || ch == ',':
			expectKey = true
			out = append(out, ch)

		case ch == '}' || ch == ']':
			out = trimTrailingComma(out)
			expectKey = false
			out = append(out, ch)

		case expectKey && isKeyStart(ch):
			end := i
			for end < len(src) && isKeyRune(src[end]) {
				end++
			}
			if end+1 < len(src) && src[end] == '"' && src[end+1] == ':' {
				// Missing opening quote; copy the key through its
				// closing quote so it is not read as a string start.
				out = append(out, '"')
				out = append(out, src[i:end]...)
				out = append(out, '"')
				i = end
			} else {
				out = append(out, ch)
			}
			expectKey = false

		default:
			if !isSpace(ch) {
				expectKey = false
			}
			out = append(out, ch)
		}
	}

	return string(out)
}

// trimTrailingComma drops a comma (and the whitespace after it) that
// ends out.
func trimTrailingComma(out []rune) []rune {
	j := len(out) - 1
	for j >= 0 && isSpace(out[j]) {
		j--
	}
	if j >= 0 && out[j] == ',' {
		return append(out[:j], out[j+1:]...)
	}
	return out
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t' || r == '\r'
}

func isKeyStart(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
}

func isKeyRune(r rune) bool {
	return isKeyStart(r) || (r >= '0' && r <= '9')
}
