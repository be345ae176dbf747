package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"

	"github.com/relabs-tech/marg_tracker/internal/config"
	"github.com/relabs-tech/marg_tracker/internal/orientation"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// webState holds the latest pose and quaternion received over MQTT.
type webState struct {
	mu       sync.RWMutex
	pose     orientation.Pose
	havePose bool
	quat     orientation.Quaternion
	haveQuat bool
}

// RunWeb subscribes to the tracker's MQTT topics and serves the latest
// orientation as a JSON API, a websocket stream, and static files.
func RunWeb() error {
	cfg := config.Get()
	state := &webState{}

	// 1) Connect to MQTT broker
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDWeb)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("web: connected to MQTT broker at %s", cfg.MQTTBroker)

	// 2) Subscribe to pose and quaternion topics
	poseToken := client.Subscribe(cfg.TopicPose, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var p orientation.Pose
		if err := json.Unmarshal(msg.Payload(), &p); err != nil {
			log.Printf("web: pose unmarshal error: %v", err)
			return
		}
		state.mu.Lock()
		state.pose = p
		state.havePose = true
		state.mu.Unlock()
	})
	poseToken.Wait()
	if poseToken.Error() != nil {
		return poseToken.Error()
	}
	log.Printf("web: subscribed to %s", cfg.TopicPose)

	quatToken := client.Subscribe(cfg.TopicQuaternion, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var q orientation.Quaternion
		if err := json.Unmarshal(msg.Payload(), &q); err != nil {
			log.Printf("web: quaternion unmarshal error: %v", err)
			return
		}
		state.mu.Lock()
		state.quat = q
		state.haveQuat = true
		state.mu.Unlock()
	})
	quatToken.Wait()
	if quatToken.Error() != nil {
		return quatToken.Error()
	}
	log.Printf("web: subscribed to %s", cfg.TopicQuaternion)

	// 3) JSON API endpoints
	http.HandleFunc("/api/orientation", func(w http.ResponseWriter, r *http.Request) {
		state.mu.RLock()
		defer state.mu.RUnlock()

		if !state.havePose {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(state.pose); err != nil {
			log.Printf("web: json encode error: %v", err)
		}
	})

	http.HandleFunc("/api/quaternion", func(w http.ResponseWriter, r *http.Request) {
		state.mu.RLock()
		defer state.mu.RUnlock()

		if !state.haveQuat {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(state.quat); err != nil {
			log.Printf("web: json encode error: %v", err)
		}
	})

	// 4) Websocket stream: push the latest pose at a fixed interval
	pushInterval := time.Duration(cfg.WebPushMS) * time.Millisecond
	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("web: websocket upgrade error: %v", err)
			return
		}
		defer conn.Close()
		log.Printf("web: websocket client connected from %s", r.RemoteAddr)

		ticker := time.NewTicker(pushInterval)
		defer ticker.Stop()

		for range ticker.C {
			state.mu.RLock()
			pose := state.pose
			have := state.havePose
			state.mu.RUnlock()

			if !have {
				continue
			}
			if err := conn.WriteJSON(pose); err != nil {
				log.Printf("web: websocket write error: %v", err)
				return
			}
		}
	})

	// 5) Static files from ./web as the root
	http.Handle("/", http.FileServer(http.Dir("web")))

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web: server listening on %s", addr)
	return http.ListenAndServe(addr, nil)
}
