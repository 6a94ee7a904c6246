package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/librescoot/usbmoded/pkg/controller"
	"github.com/librescoot/usbmoded/pkg/mode"
)

// runInteractive runs a line-oriented debug REPL alongside the daemon
// loop, letting an operator inspect ControllerState and drive
// request_mode by hand without going through the redis bridge.
func runInteractive(ctrl *controller.Controller) {
	width, _, err := term.GetSize(int(os.Stdin.Fd()))
	if err != nil || width <= 0 {
		width = 80
	}

	fmt.Println(strings.Repeat("-", width))
	fmt.Println("usbmoded interactive debug REPL — type \"help\" for commands")
	fmt.Println(strings.Repeat("-", width))

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("usbmoded> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "help":
			fmt.Println("commands: state, request <mode> [user], quit")
		case "state":
			s := ctrl.State()
			fmt.Printf("internal=%s target=%s external=%s user=%s\n", s.Internal, s.Target, s.External, s.UserForMode)
		case "request":
			if len(fields) < 2 {
				fmt.Println("usage: request <mode> [user]")
				continue
			}
			user := mode.UnknownUser
			if len(fields) >= 3 {
				user = mode.UserID(fields[2])
			}
			if err := ctrl.RequestMode(mode.Name(fields[1]), user, nil); err != nil {
				fmt.Printf("denied: %v\n", err)
			}
		case "quit", "exit":
			return
		default:
			fmt.Printf("unknown command %q, type \"help\"\n", fields[0])
		}
	}
}
