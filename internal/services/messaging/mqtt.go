package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"firewatch-worker-go/internal/config"
	"firewatch-worker-go/internal/models"
)

const mqttPublishTimeout = 5 * time.Second

// MQTTPublisher publishes alerts for dashboards and sirens that speak MQTT
type MQTTPublisher struct {
	client   mqtt.Client
	topic    string
	qos      byte
	workerID string
}

func NewMQTTPublisher(cfg *config.Config) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.MQTTBroker)
	opts.SetClientID(cfg.MQTTClientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(cfg.MQTTConnTimeout)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("MQTT connection lost")
	})

	if cfg.MQTTUsername != "" {
		opts.SetUsername(cfg.MQTTUsername)
		opts.SetPassword(cfg.MQTTPassword)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if ok := token.WaitTimeout(cfg.MQTTConnTimeout); !ok {
		return nil, fmt.Errorf("mqtt connect timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect error: %w", err)
	}

	log.Info().Str("broker", cfg.MQTTBroker).Msg("MQTT connection established")

	return &MQTTPublisher{
		client:   client,
		topic:    cfg.MQTTAlertTopic,
		qos:      byte(cfg.MQTTQoS),
		workerID: cfg.WorkerID,
	}, nil
}

func (p *MQTTPublisher) Name() string { return "mqtt" }

// NotifyAlert publishes the alert on <MQTT_ALERT_TOPIC>/<camera_id>
func (p *MQTTPublisher) NotifyAlert(ctx context.Context, alert *models.Alert) error {
	payload, err := json.Marshal(NewAlertMessage(alert, p.workerID))
	if err != nil {
		return err
	}

	timeout := mqttPublishTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}

	token := p.client.Publish(MQTTTopic(p.topic, alert.CameraID), p.qos, false, payload)
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("mqtt publish timeout")
	}
	return token.Error()
}

func (p *MQTTPublisher) IsConnected() bool {
	return p.client != nil && p.client.IsConnected()
}

func (p *MQTTPublisher) Shutdown(_ context.Context) error {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
	return nil
}
