// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package validation

// booleanValidator fails with err when the check is false.
type booleanValidator struct {
	check bool
	err   error
}

var _ Validator = booleanValidator{}

// NewBooleanValidator returns a Validator failing with err when check is false.
func NewBooleanValidator(check bool, err error) Validator {
	return booleanValidator{check: check, err: err}
}

// Validate returns an error if boolean check is false
func (v booleanValidator) Validate() error {
	if !v.check {
		return v.err
	}
	return nil
}

// emptyStringValidator fails with err when the value is blank.
type emptyStringValidator struct {
	value string
	err   error
}

var _ Validator = emptyStringValidator{}

// NewEmptyStringValidator returns a Validator failing with err when value is
// empty or only made of spaces.
func NewEmptyStringValidator(value string, err error) Validator {
	return emptyStringValidator{value: value, err: err}
}

// Validate executes the validation
func (v emptyStringValidator) Validate() error {
	for _, r := range v.value {
		if r != ' ' && r != '\t' && r != '\n' {
			return nil
		}
	}
	return v.err
}
