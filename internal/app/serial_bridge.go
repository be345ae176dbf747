package app

import (
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/marg_tracker/internal/config"
	"github.com/relabs-tech/marg_tracker/internal/orientation"
)

// RunSerialBridge subscribes to the pose topic and forwards every pose
// over a serial port as a fixed 16-byte binary frame, for downstream
// hardware that speaks the framed float protocol instead of MQTT.
func RunSerialBridge() error {
	cfg := config.Get()

	// ---- 1) Open the serial port ----
	serialOpts := serial.OpenOptions{
		PortName:        cfg.SerialPort,
		BaudRate:        uint(cfg.SerialBaud),
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
		ParityMode:      serial.PARITY_NONE,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return err
	}
	defer port.Close()
	log.Printf("serial bridge: port opened on %s at %d baud", cfg.SerialPort, cfg.SerialBaud)

	// ---- 2) Connect to MQTT broker ----
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDSerial)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("serial bridge: connected to MQTT broker at %s", cfg.MQTTBroker)

	// ---- 3) Forward each pose as a binary frame ----
	token := client.Subscribe(cfg.TopicPose, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var p orientation.Pose
		if err := json.Unmarshal(msg.Payload(), &p); err != nil {
			log.Printf("serial bridge: pose unmarshal error: %v", err)
			return
		}
		if _, err := port.Write(orientation.EncodeFrame(p)); err != nil {
			log.Printf("serial bridge: write error: %v", err)
		}
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("serial bridge: subscribed to %s", cfg.TopicPose)

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("serial bridge: shutting down")
	return nil
}
