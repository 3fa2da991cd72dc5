/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

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
package cmd

import (
	"fmt"
	"io"

	"github.com/hitzhangjie/gotrace/pkg/supervisor"
)

// report prints the outcome and records the exit status of gotrace.
func report(w io.Writer, o supervisor.Outcome) {
	fmt.Fprintf(w, "[%d] %v\n", o.ID, o)
	setExitStatus(o.ExitStatus())
}
