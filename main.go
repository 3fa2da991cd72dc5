/*
Copyright © 2020 hit.zhangjie@gmail.com

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
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hitzhangjie/gotrace/cmd"
	"github.com/hitzhangjie/gotrace/pkg/target"
)

func main() {
	go processSignals()
	cmd.Execute()
}

func processSignals() {
	ch := make(chan os.Signal, 16)
	signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	for sig := range ch {
		// tracees run in their own process group and don't see terminal
		// signals, kill the ones we started before going away
		killed := target.KillLaunched()
		if len(killed) != 0 {
			fmt.Fprintf(os.Stderr, "%v: killed tracees %v\n", sig, killed)
		}
		cmd.Cleanup()
		os.Exit(128 + int(sig.(syscall.Signal)))
	}
}
