// Command irrigation-controller drives low-trigger relays and a PCA9685
// servo valve over HTTP, executes scheduled watering tasks, and publishes
// device events to MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/sweeney/irrigation-controller/internal/config"
	"github.com/sweeney/irrigation-controller/internal/mqtt"
	"github.com/sweeney/irrigation-controller/internal/pca9685"
	"github.com/sweeney/irrigation-controller/internal/relay"
	"github.com/sweeney/irrigation-controller/internal/servo"
	"github.com/sweeney/irrigation-controller/internal/status"
	"github.com/sweeney/irrigation-controller/internal/tasks"
	"github.com/sweeney/irrigation-controller/internal/timers"
	"github.com/sweeney/irrigation-controller/internal/web"
)

func main() {
	configPath := flag.String("config", "", "TOML config file (default: controller.toml if present)")
	httpAddr := flag.String("http", "", "HTTP listen address (overrides config, empty keeps config)")
	broker := flag.String("broker", "", "MQTT broker address (overrides config)")
	heartbeat := flag.Duration("heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	printConfig := flag.Bool("print-config", false, "Print effective configuration and exit")

	flag.Parse()

	if err := run(*configPath, *httpAddr, *broker, *heartbeat, *printConfig); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(configPath, httpAddr, broker string, heartbeat time.Duration, printConfig bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if httpAddr != "" {
		cfg.HTTPAddr = httpAddr
	}
	if broker != "" {
		cfg.Broker = broker
	}

	if printConfig {
		return toml.NewEncoder(os.Stdout).Encode(cfg)
	}

	// Initialize relays
	relayLines, err := relay.RequestLines(cfg.GPIO.Chip, cfg.GPIO.RelayPins)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer relayLines.Close()

	bank, err := relay.NewBank(relayLines.Lines()...)
	if err != nil {
		return fmt.Errorf("init relay bank: %w", err)
	}

	// Initialize the PWM controller and servo
	i2cBus, err := pca9685.OpenI2C(cfg.I2C.Bus, uint16(cfg.I2C.Addr))
	if err != nil {
		return fmt.Errorf("init i2c: %w", err)
	}
	defer i2cBus.Close()

	pwm := pca9685.New(i2cBus)
	if err := pwm.SetFrequency(cfg.Servo.FrequencyHz); err != nil {
		return fmt.Errorf("set pwm frequency: %w", err)
	}
	valve, err := servo.New(pwm, cfg.Servo.Channel, cfg.Servo.MinPulseUS, cfg.Servo.MaxPulseUS, cfg.Servo.FrequencyHz)
	if err != nil {
		return fmt.Errorf("init servo: %w", err)
	}

	// Load scheduled tasks
	store := tasks.Open(cfg.Tasks.File, cfg.Tasks.Max)

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), cfg.DeviceNames(), status.Config{
		HTTPAddr:        cfg.HTTPAddr,
		Broker:          cfg.Broker,
		TaskFile:        cfg.Tasks.File,
		MaxTasks:        cfg.Tasks.Max,
		CheckIntervalMs: int64(cfg.Tasks.CheckIntervalSeconds) * 1000,
	})
	tracker.SetTaskCount(store.Len())

	// Initialize MQTT (empty broker disables publishing)
	var publisher mqtt.Publisher
	var mqttStatus mqtt.ConnectionStatus
	if cfg.Broker != "" {
		real, err := mqtt.NewRealPublisher(cfg.Broker)
		if err != nil {
			return fmt.Errorf("connect mqtt: %w", err)
		}
		defer real.Close()
		publisher, mqttStatus = real, real
	}

	autoOff := timers.NewScheduler(func(channel int) error {
		if err := bank.Off(channel); err != nil {
			return err
		}
		tracker.SetRelay(channel, false)
		publishEvent(publisher, mqtt.DeviceEvent{
			Device:  deviceName(cfg, channel),
			Action:  "AUTO_OFF",
			Channel: channel,
		})
		return nil
	}, cfg.AutoOff.Supersede)

	runner := tasks.NewRunner(store, &taskExecutor{
		cfg:     cfg,
		relays:  bank,
		autoOff: autoOff,
		tracker: tracker,
		events:  publisher,
	})

	// Publish startup event with full status snapshot
	if publisher != nil {
		snap := tracker.Snapshot()
		startupEvent := mqtt.SystemEvent{
			Timestamp:  snap.Now,
			Event:      "STARTUP",
			Retained:   true,
			RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
		}
		if err := publisher.PublishSystem(startupEvent); err != nil {
			log.Printf("failed to publish startup event: %v", err)
		} else {
			log.Printf("published startup event")
		}
	}

	// Start HTTP control server
	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, web.Options{
			Config:  cfg,
			Relays:  bank,
			Servo:   valve,
			AutoOff: autoOff,
			Store:   store,
			Tracker: tracker,
			Events:  publisher,
		})
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http control server listening on %s", cfg.HTTPAddr)
	}

	log.Printf("started: relays=%d broker=%s check=%ds heartbeat=%v",
		bank.Size(), cfg.Broker, cfg.Tasks.CheckIntervalSeconds, heartbeat)

	ticker := time.NewTicker(time.Duration(cfg.Tasks.CheckIntervalSeconds) * time.Second)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(runner, store, bank, publisher, mqttStatus, tracker, heartbeat, time.Now, ticker.C, sigCh)
}

func runLoop(runner *tasks.Runner, store *tasks.Store, bank *relay.Bank, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	var nextHeartbeat time.Time
	if heartbeat > 0 {
		nextHeartbeat = now().Add(heartbeat)
	}

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}

			// Park all relays off before the process exits.
			if err := bank.OffAll(); err != nil {
				log.Printf("shutdown: relays off: %v", err)
			} else {
				tracker.SetRelays(make([]bool, bank.Size()))
			}

			if publisher != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				snap := tracker.Snapshot()
				event := mqtt.SystemEvent{
					Timestamp:  now(),
					Event:      "SHUTDOWN",
					Reason:     signalName,
					Retained:   true,
					RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", signalName),
				}
				if err := publisher.PublishSystem(event); err != nil {
					log.Printf("failed to publish shutdown event: %v", err)
				} else {
					log.Printf("published shutdown event")
				}
			}
			return nil

		case <-tick:
			t := now()

			executed, err := runner.CheckDue(t)
			if err != nil {
				log.Printf("task runner: %v", err)
				// Don't crash on a failed task; it stays due for this minute.
			}
			if executed {
				tracker.SetTaskCount(store.Len())
			}

			if mqttStatus != nil {
				tracker.SetMQTTConnected(mqttStatus.IsConnected())
			}

			if heartbeat > 0 && !t.Before(nextHeartbeat) {
				nextHeartbeat = t.Add(heartbeat)
				snap := tracker.Snapshot()
				log.Printf("heartbeat: uptime=%v tasks=%d", snap.Uptime().Truncate(time.Second), snap.TaskCount)
				if publisher != nil {
					hbEvent := mqtt.SystemEvent{
						Timestamp:  t,
						Event:      "HEARTBEAT",
						RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
					}
					if err := publisher.PublishSystem(hbEvent); err != nil {
						log.Printf("heartbeat publish error: %v", err)
					}
				}
			}
		}
	}
}

// taskExecutor turns a device on for a scheduled task and arranges the
// matching auto-off.
type taskExecutor struct {
	cfg     *config.Config
	relays  *relay.Bank
	autoOff *timers.Scheduler
	tracker *status.Tracker
	events  mqtt.Publisher
}

func (e *taskExecutor) Execute(device string, duration int) error {
	dev, ok := e.cfg.DeviceByName(device)
	if !ok {
		return fmt.Errorf("unknown device %q", device)
	}
	if err := e.relays.On(dev.Channel); err != nil {
		return fmt.Errorf("relay %d on: %w", dev.Channel, err)
	}
	e.tracker.SetRelay(dev.Channel, true)
	publishEvent(e.events, mqtt.DeviceEvent{
		Device:   device,
		Action:   "ON",
		Channel:  dev.Channel,
		Duration: duration,
	})
	e.autoOff.ScheduleOff(dev.Channel, time.Duration(duration)*time.Second)
	return nil
}

// publishEvent sends a device event when MQTT is enabled. Publish failures
// are logged, never fatal.
func publishEvent(p mqtt.Publisher, event mqtt.DeviceEvent) {
	if p == nil {
		return
	}
	event.Timestamp = time.Now()
	if err := p.Publish(event); err != nil {
		log.Printf("publish error: %v", err)
	}
}

func deviceName(cfg *config.Config, channel int) string {
	names := cfg.DeviceNames()
	if channel >= 0 && channel < len(names) {
		return names[channel]
	}
	return ""
}
