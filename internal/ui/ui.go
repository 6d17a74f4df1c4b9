// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui renders colored, TTY-aware status output for the fenec CLI.
package ui

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errColor     = color.New(color.FgRed, color.Bold)

	enabled = true
)

// InitColors decides whether colored output should be used: disabled when
// --no-color is passed, when NO_COLOR is set, or when stdout isn't a TTY.
func InitColors(noColorFlag bool) {
	if noColorFlag || os.Getenv("NO_COLOR") != "" || !isatty.IsTerminal(os.Stdout.Fd()) {
		enabled = false
		color.NoColor = true
		return
	}
	enabled = true
	color.NoColor = false
}

// Header prints a bold section title.
func Header(format string, args ...any) {
	headerColor.Println(fmt.Sprintf(format, args...))
}

// SubHeader prints a lighter section title under a Header.
func SubHeader(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// Success prints a green confirmation line.
func Success(format string, args ...any) {
	successColor.Println(fmt.Sprintf(format, args...))
}

// Warn prints a yellow warning line to stderr.
func Warn(format string, args ...any) {
	warnColor.Fprintln(os.Stderr, fmt.Sprintf(format, args...))
}

// Err prints a bold red error line to stderr.
func Err(format string, args ...any) {
	errColor.Fprintln(os.Stderr, fmt.Sprintf(format, args...))
}

// Enabled reports whether colored output is currently active.
func Enabled() bool { return enabled }
