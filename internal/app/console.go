package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/marg_tracker/internal/config"
	"github.com/relabs-tech/marg_tracker/internal/marg"
	"github.com/relabs-tech/marg_tracker/internal/orientation"
)

// RunConsole subscribes to the tracker's MQTT topics and prints every
// message to stdout until interrupted.
func RunConsole() error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	poseToken := client.Subscribe(cfg.TopicPose, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var p orientation.Pose
		if err := json.Unmarshal(msg.Payload(), &p); err != nil {
			log.Printf("console: pose unmarshal error: %v", err)
			return
		}
		fmt.Printf("[POSE] ROLL=%7.2f  PITCH=%7.2f  YAW=%7.2f\n", p.Roll, p.Pitch, p.Yaw)
	})
	poseToken.Wait()
	if poseToken.Error() != nil {
		return poseToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicPose)

	quatToken := client.Subscribe(cfg.TopicQuaternion, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var q orientation.Quaternion
		if err := json.Unmarshal(msg.Payload(), &q); err != nil {
			log.Printf("console: quaternion unmarshal error: %v", err)
			return
		}
		fmt.Printf("[QUAT] w=%+.5f x=%+.5f y=%+.5f z=%+.5f\n", q.W, q.X, q.Y, q.Z)
	})
	quatToken.Wait()
	if quatToken.Error() != nil {
		return quatToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicQuaternion)

	for _, topic := range []string{cfg.TopicScaledAccel, cfg.TopicScaledGyro, cfg.TopicScaledMag} {
		token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
			var s marg.Scaled
			if err := json.Unmarshal(msg.Payload(), &s); err != nil {
				log.Printf("console: scaled triad unmarshal error: %v", err)
				return
			}
			fmt.Printf("[%-5s] x=%9.3f y=%9.3f z=%9.3f\n", s.Sensor, s.X, s.Y, s.Z)
		})
		token.Wait()
		if token.Error() != nil {
			return token.Error()
		}
		log.Printf("console: subscribed to %s", topic)
	}

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}
