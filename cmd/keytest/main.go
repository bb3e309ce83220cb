package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"go-lyrica/chime"
	"go-lyrica/config"
	"go-lyrica/desktop"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	switch os.Args[1] {
	case "windows":
		listWindows()
	case "focus":
		focusWindow(arg(2, "Sky"))
	case "tap":
		tapKey(arg(2, "z"))
	case "target":
		checkTarget()
	case "hotkey":
		watchHotkey(arg(2, "#"))
	case "ports":
		listPorts()
	case "chime":
		ringChime()
	default:
		usage()
	}
}

func arg(i int, def string) string {
	if len(os.Args) > i {
		return os.Args[i]
	}
	return def
}

func usage() {
	fmt.Println("Key Test Scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  windows        - List titled windows")
	fmt.Println("  focus [title]  - Find and activate a window")
	fmt.Println("  tap [key]      - Press a key after 3 seconds")
	fmt.Println("  target         - Check the configured game process")
	fmt.Println("  hotkey [key]   - Print global presses of key")
	fmt.Println("  ports          - List MIDI input ports")
	fmt.Println("  chime          - Play the completion signal")
}

func fail(err error) {
	fmt.Println("ERROR:", err)
	os.Exit(1)
}

func openDisplay() *desktop.Display {
	d, err := desktop.OpenDisplay()
	if err != nil {
		if desktop.Wayland() {
			fmt.Println("(no X connection, using xdotool)")
			return nil
		}
		fail(err)
	}
	return d
}

func listWindows() {
	d := openDisplay()
	wins, err := desktop.NewWindows(d).List(context.Background())
	if err != nil {
		fail(err)
	}
	for _, w := range wins {
		fmt.Printf("  %8d  %s\n", w.ID, w.Title)
	}
	fmt.Printf("%d windows\n", len(wins))
}

func focusWindow(title string) {
	d := openDisplay()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := desktop.NewWindows(d).FocusTitle(ctx, title); err != nil {
		fail(err)
	}
	fmt.Println("focused", title)
}

func tapKey(key string) {
	d, err := desktop.OpenDisplay()
	if err != nil {
		fail(err)
	}
	defer d.Close()
	fmt.Printf("Switch to a text editor, pressing %q in 3 seconds...\n", key)
	time.Sleep(3 * time.Second)
	if err := desktop.NewKeyboard(d).Tap(key); err != nil {
		fail(err)
	}
	fmt.Println("sent")
}

func checkTarget() {
	settings, err := config.DefaultStore().Load()
	if err != nil {
		fail(err)
	}
	up, err := desktop.NewProcesses().Running(context.Background(), settings.Target.Process)
	if err != nil {
		fail(err)
	}
	fmt.Printf("process %q running: %v\n", settings.Target.Process, up)
}

func watchHotkey(key string) {
	hk, err := desktop.GrabHotkey(key)
	if err != nil {
		fail(err)
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	go hk.Run(ctx)

	fmt.Printf("Press %q anywhere (Ctrl+C to quit)\n", key)
	n := 0
	for range hk.Presses() {
		n++
		fmt.Printf("  press %d\n", n)
	}
}

func listPorts() {
	fmt.Println("=== MIDI Input Ports ===")
	fmt.Println("(waiting up to 3 seconds...)")

	ch := make(chan []string, 1)
	go func() {
		var names []string
		for _, p := range midi.GetInPorts() {
			names = append(names, p.String())
		}
		ch <- names
	}()

	select {
	case names := <-ch:
		for i, n := range names {
			fmt.Printf("  %d: %s\n", i, n)
		}
	case <-time.After(3 * time.Second):
		fmt.Println("\nTIMEOUT! The MIDI backend is not responding.")
	}
}

func ringChime() {
	chime.New().Ring()
	time.Sleep(500 * time.Millisecond)
}
