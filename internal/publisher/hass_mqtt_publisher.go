package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"
	"github.com/google/uuid"
	"github.com/kuretru/quatt-gateway/entity"
	"github.com/kuretru/quatt-gateway/entity/hass"
	"github.com/kuretru/quatt-gateway/internal/catalog"
	"github.com/kuretru/quatt-gateway/internal/collector"
	"github.com/kuretru/quatt-gateway/internal/database"
)

const (
	devicePrefix = "quatt_"
	commandTopic = "quatt/+/set"

	configInterval = 5 * time.Minute
	stateInterval  = 15 * time.Second
	startDelay     = 20 * time.Second
)

type HomeAssistantMQTTPublisher struct {
	db        *database.Database
	commander collector.Commander

	config            *entity.PublisherConfig
	connectionManager *autopaho.ConnectionManager
}

func (publisher *HomeAssistantMQTTPublisher) Run(ctx context.Context, config *entity.PublisherConfig) error {
	if config.MQTT == nil {
		return fmt.Errorf("Publisher.HASS_MQTT: mqtt config is required")
	}
	publisher.config = config
	u, err := url.Parse(config.MQTT.URL)
	if err != nil {
		return fmt.Errorf("Publisher.HASS_MQTT: parse mqtt url failed: %v, %v", config.MQTT.URL, err)
	}
	topic := config.MQTT.Topic
	if topic == "" {
		topic = commandTopic
	}
	clientID := config.MQTT.ClientID
	if clientID == "" {
		clientID = "quatt-gateway-" + uuid.NewString()
	}

	router := paho.NewStandardRouter()
	router.DefaultHandler(func(publish *paho.Publish) {
		slog.Info("Publisher.HASS_MQTT: unrouted message received", "topic", publish.Topic)
	})
	router.RegisterHandler(topic, func(publish *paho.Publish) {
		publisher.handleCommand(context.Background(), publish)
	})

	clientConfig := autopaho.ClientConfig{
		ServerUrls:      []*url.URL{u},
		KeepAlive:       config.MQTT.Keepalive,
		ConnectUsername: config.MQTT.Username,
		ConnectPassword: []byte(config.MQTT.Password),
		// 断线后保留会话，重连时不丢失命令订阅
		CleanStartOnInitialConnection: false,
		SessionExpiryInterval:         60,
		OnConnectionUp: func(connectionManager *autopaho.ConnectionManager, connAck *paho.Connack) {
			slog.Info("Publisher.HASS_MQTT: connected to server")
			if _, err := connectionManager.Subscribe(context.Background(), &paho.Subscribe{
				Subscriptions: []paho.SubscribeOptions{
					{Topic: topic, QoS: 1},
				},
			}); err != nil {
				slog.Error("Publisher.HASS_MQTT: subscribe failed", "err", err)
				return
			}
			slog.Info("Publisher.HASS_MQTT: subscribed to", "topic", topic)
		},
		OnConnectError: func(err error) {
			slog.Error("Publisher.HASS_MQTT: connect failed", "err", err)
		},
		ClientConfig: paho.ClientConfig{
			ClientID: clientID,
			OnPublishReceived: []func(paho.PublishReceived) (bool, error){
				func(publishReceived paho.PublishReceived) (bool, error) {
					router.Route(publishReceived.Packet.Packet())
					return true, nil
				}},
			OnClientError: func(err error) {
				slog.Info("Publisher.HASS_MQTT: client error", "err", err)
			},
			OnServerDisconnect: func(d *paho.Disconnect) {
				if d.Properties != nil && d.Properties.ReasonString != "" {
					slog.Error("Publisher.HASS_MQTT: server requested disconnect", "reason", d.Properties.ReasonString)
				} else {
					slog.Error("Publisher.HASS_MQTT: server requested disconnect", "reasonCode", d.ReasonCode)
				}
			},
		},
	}

	publisher.connectionManager, err = autopaho.NewConnection(ctx, clientConfig)
	if err != nil {
		return fmt.Errorf("Publisher.HASS_MQTT: NewConnection failed, %v", err)
	}
	if err = publisher.connectionManager.AwaitConnection(ctx); err != nil {
		return fmt.Errorf("Publisher.HASS_MQTT: AwaitConnection failed, %v", err)
	}
	slog.Info("Publisher.HASS_MQTT: initialized", "server", config.MQTT.URL, "clientId", clientID)

	// Slow start, waiting for the first polls to fill the database
	go func() {
		select {
		case <-ctx.Done():
			return
		case <-time.After(startDelay):
			go publisher.runConfigTopic(ctx)
			go publisher.runStateTopic(ctx)
		}
	}()
	return nil
}

func (publisher *HomeAssistantMQTTPublisher) Stop(ctx context.Context) {
	if publisher.connectionManager != nil {
		_ = publisher.connectionManager.Disconnect(ctx)
	}
	slog.Info("Publisher.HASS_MQTT: stopped")
}

func (publisher *HomeAssistantMQTTPublisher) runConfigTopic(ctx context.Context) {
	publisher.publishConfigTopic(ctx)

	configTopicTicker := time.NewTicker(configInterval)
	defer configTopicTicker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-configTopicTicker.C:
			publisher.publishConfigTopic(ctx)
		}
	}
}

func (publisher *HomeAssistantMQTTPublisher) runStateTopic(ctx context.Context) {
	publisher.publishStateTopic(ctx)

	stateTopicTicker := time.NewTicker(stateInterval)
	defer stateTopicTicker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-stateTopicTicker.C:
			publisher.publishStateTopic(ctx)
		}
	}
}

func nodeID(deviceType entity.DeviceType) string {
	return devicePrefix + string(deviceType)
}

func stateTopic(deviceType entity.DeviceType) string {
	return fmt.Sprintf("homeassistant/device/%v/state", nodeID(deviceType))
}

func (publisher *HomeAssistantMQTTPublisher) publishConfigTopic(ctx context.Context) {
	for _, deviceType := range publisher.db.GetAllDeviceTypes(ctx) {
		payload := buildDiscoveryMessage(deviceType, publisher.db.GetDeviceCells(ctx, deviceType))
		payloadBytes, err := json.Marshal(payload)
		if err != nil {
			slog.Error("Publisher.HASS_MQTT: marshal config failed", "device", deviceType, "err", err)
			continue
		}
		if _, err = publisher.connectionManager.Publish(ctx, &paho.Publish{
			QoS:     0,
			Retain:  true,
			Topic:   fmt.Sprintf("homeassistant/device/%v/config", nodeID(deviceType)),
			Payload: payloadBytes,
		}); err != nil {
			slog.Warn("Publisher.HASS_MQTT: publish config failed", "device", deviceType, "err", err)
		}
	}
	slog.Info("Publisher.HASS_MQTT: published config topic")
}

func buildDiscoveryMessage(deviceType entity.DeviceType, cells []*database.MemoryCell) hass.MQTTDiscoveryMessage {
	device := hass.DeviceInfo{
		Identifiers:  nodeID(deviceType),
		Name:         deviceType.DeviceName(),
		Manufacturer: "Quatt",
		Model:        deviceType.DeviceName(),
	}
	if deviceType != entity.DeviceTypeHub {
		device.ViaDevice = nodeID(entity.DeviceTypeHub)
	}

	payload := hass.MQTTDiscoveryMessage{
		Device: device,
		Origin: hass.OriginInfo{
			Name:            "quatt-gateway",
			SoftwareVersion: "1.0.0",
			SupportUrl:      "https://github.com/kuretru/quatt-gateway",
		},
		Components: make(map[string]hass.Component),
		StateTopic: stateTopic(deviceType),
		QOS:        0,
	}
	for _, cell := range cells {
		component := buildComponent(deviceType, cell.Record)
		payload.Components[component.Key] = component
	}
	return payload
}

// buildComponent describes one entity. Entities outside the catalog, such as
// the system entity, are published as plain sensors carrying their attributes.
func buildComponent(deviceType entity.DeviceType, record *entity.StateRecord) hass.Component {
	platform, objectID, _ := strings.Cut(record.EntityID, ".")
	component := hass.Component{
		Key:                    objectID,
		Platform:               platform,
		ObjectID:               objectID,
		UniqueID:               devicePrefix + objectID,
		ValueTemplate:          fmt.Sprintf("{{ value_json.%v }}", objectID),
		JSONAttributesTopic:    stateTopic(deviceType),
		JSONAttributesTemplate: fmt.Sprintf("{{ value_json.attributes.%v | tojson }}", objectID),
	}

	description, ok := catalog.Lookup(record.EntityID)
	if !ok {
		if name, ok := record.Attributes["friendly_name"].(string); ok {
			component.Name = name
		} else {
			component.Name = objectID
		}
		return component
	}

	component.Name = description.Name
	component.Icon = description.Icon
	component.DeviceClass = description.DeviceClass
	component.StateClass = description.StateClass
	component.UnitOfMeasurement = description.Unit
	component.EntityCategory = description.EntityCategory
	component.SuggestedDisplayPrecision = description.Precision
	switch description.Platform {
	case catalog.PlatformBinarySensor:
		component.ValueTemplate = fmt.Sprintf("{{ 'ON' if value_json.%v else 'OFF' }}", objectID)
		component.PayloadOn = "ON"
		component.PayloadOff = "OFF"
	case catalog.PlatformSelect:
		component.CommandTopic = fmt.Sprintf("quatt/%v/set", nodeID(deviceType))
		component.CommandTemplate = fmt.Sprintf(`{"%v": "{{ value }}"}`, description.Key)
		component.Options = description.Options
	}
	return component
}

func (publisher *HomeAssistantMQTTPublisher) publishStateTopic(ctx context.Context) {
	for _, deviceType := range publisher.db.GetAllDeviceTypes(ctx) {
		payload := buildStatePayload(publisher.db.GetDeviceCells(ctx, deviceType))
		payloadBytes, err := json.Marshal(payload)
		if err != nil {
			slog.Error("Publisher.HASS_MQTT: marshal state failed", "device", deviceType, "err", err)
			continue
		}
		if _, err = publisher.connectionManager.Publish(ctx, &paho.Publish{
			QoS:     0,
			Retain:  true,
			Topic:   stateTopic(deviceType),
			Payload: payloadBytes,
		}); err != nil {
			slog.Warn("Publisher.HASS_MQTT: publish state failed", "device", deviceType, "err", err)
		}
	}
	slog.Debug("Publisher.HASS_MQTT: published state topic")
}

// buildStatePayload 所有实体的状态，属性放在attributes下
func buildStatePayload(cells []*database.MemoryCell) map[string]any {
	payload := make(map[string]any, len(cells)+1)
	attributes := make(map[string]any, len(cells))
	for _, cell := range cells {
		_, objectID, _ := strings.Cut(cell.Record.EntityID, ".")
		payload[objectID] = cell.Record.Value
		attributes[objectID] = cell.Record.Attributes
	}
	payload["attributes"] = attributes
	return payload
}

func (publisher *HomeAssistantMQTTPublisher) handleCommand(ctx context.Context, publish *paho.Publish) {
	topicSeg := strings.Split(publish.Topic, "/")
	if len(topicSeg) != 3 || !strings.HasPrefix(topicSeg[1], devicePrefix) {
		slog.Info("Publisher.HASS_MQTT: ignored command on foreign topic", "topic", publish.Topic)
		return
	}
	commands, err := parseCommands(topicSeg[1], publish.Payload)
	if err != nil {
		slog.Info("Publisher.HASS_MQTT: unmarshal payload failed", "err", err)
		return
	}
	if publisher.commander == nil {
		slog.Warn("Publisher.HASS_MQTT: no commander, dropping commands", "count", len(commands))
		return
	}
	for _, command := range commands {
		if err = publisher.commander.SendCommand(ctx, command); err != nil {
			slog.Error("Publisher.HASS_MQTT: send command failed", "key", command.Key, "err", err)
			continue
		}
		slog.Info("Publisher.HASS_MQTT: command applied", "key", command.Key, "value", command.Value)
	}
}

func parseCommands(node string, payload []byte) ([]*entity.Command, error) {
	var values map[string]string
	if err := json.Unmarshal(payload, &values); err != nil {
		return nil, err
	}
	commands := make([]*entity.Command, 0, len(values))
	for key, value := range values {
		commands = append(commands, &entity.Command{
			NodeID: strings.TrimPrefix(node, devicePrefix),
			Key:    key,
			Value:  value,
		})
	}
	return commands, nil
}
