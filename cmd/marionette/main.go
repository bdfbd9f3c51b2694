package main

import (
	"bufio"
	"context"
	"time"

	"marionette-go/boards"
	"marionette-go/bus"
	"marionette-go/platform"
	"marionette-go/services/fetch"
	"marionette-go/services/heartbeat"
	"marionette-go/services/io/iomanage"

	iosvc "marionette-go/services/io"
)

const prompt = "m> "

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	ctx := context.Background()

	println("[main] bootstrapping bus …")
	b := bus.NewBus(8)

	println("[main] building io registry for board marionette …")
	mgr := iomanage.New(platform.DefaultPAL(), boards.Marionette()...)
	if err := iosvc.New(b.NewConnection("io"), mgr).Start(ctx); err != nil {
		println("[main] io service failed:", err.Error())
		return
	}

	hb := &heartbeat.Service{
		LEDPort: boards.LEDPort.Token(),
		LEDPad:  boards.LEDGreenPad,
	}
	if err := hb.Start(ctx, b.NewConnection("heartbeat")); err != nil {
		println("[main] heartbeat failed:", err.Error())
	}

	sh := fetch.New(b.NewConnection("fetch"), platform.DefaultI2CFactory(), fetch.Config{
		I2C: map[string]fetch.I2CPins{
			"i2c0": {Port: boards.I2C1Port.Token(), SCL: boards.I2C1SCLPad, SDA: boards.I2C1SDAPad},
		},
	})

	console := platform.DefaultConsole()
	writeLine(console, fetch.Version+" — type 'help'")

	scanner := bufio.NewScanner(console)
	write(console, prompt)
	for scanner.Scan() {
		if out := sh.Eval(ctx, scanner.Text()); out != "" {
			writeLine(console, out)
		}
		write(console, prompt)
	}
	if err := scanner.Err(); err != nil {
		println("[main] console closed:", err.Error())
	}
}

func write(c platform.Console, s string) {
	if _, err := c.Write([]byte(s)); err != nil {
		println("[main] console write failed:", err.Error())
	}
}

func writeLine(c platform.Console, s string) {
	write(c, s+"\r\n")
}
