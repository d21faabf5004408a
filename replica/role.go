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

package replica

// Role is the position of a replica in its replica set.
type Role int32

const (
	// Unknown is the role of a replica that was not assigned one yet.
	Unknown Role = iota
	// Primary serves requests and runs the service loop.
	Primary
	// ActiveSecondary follows the primary and may be promoted.
	ActiveSecondary
	// IdleSecondary is being built and may become an active secondary.
	IdleSecondary
	// None is the role of a replica that is being deleted.
	None
)

// String returns the name of the role
func (r Role) String() string {
	switch r {
	case Unknown:
		return "Unknown"
	case Primary:
		return "Primary"
	case ActiveSecondary:
		return "ActiveSecondary"
	case IdleSecondary:
		return "IdleSecondary"
	case None:
		return "None"
	default:
		return "Invalid"
	}
}
