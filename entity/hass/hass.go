package hass

type MQTTDiscoveryMessage struct {
	Device       DeviceInfo           `json:"device"`
	Origin       OriginInfo           `json:"origin"`
	Components   map[string]Component `json:"components"`
	CommandTopic string               `json:"command_topic,omitempty"`
	StateTopic   string               `json:"state_topic"`
	QOS          int                  `json:"qos"`
}

type DeviceInfo struct {
	ConfigurationUrl string   `json:"configuration_url,omitempty"`
	Connections      []string `json:"connections,omitempty"`
	Identifiers      string   `json:"identifiers"`
	Name             string   `json:"name"`
	Manufacturer     string   `json:"manufacturer"`
	Model            string   `json:"model"`
	SoftwareVersion  string   `json:"sw_version,omitempty"`
	SuggestedArea    string   `json:"suggested_area,omitempty"`
	ViaDevice        string   `json:"via_device,omitempty"`
}

type OriginInfo struct {
	Name            string `json:"name"`
	SoftwareVersion string `json:"sw_version"`
	SupportUrl      string `json:"support_url"`
}

type Component struct {
	Key                       string `json:"-"`
	Platform                  string `json:"platform"`
	DeviceClass               string `json:"device_class,omitempty"`
	EntityCategory            string `json:"entity_category,omitempty"`
	EnabledByDefault          *bool  `json:"enabled_by_default,omitempty"`
	Icon                      string `json:"icon,omitempty"`
	Name                      string `json:"name,omitempty"`
	ObjectID                  string `json:"object_id,omitempty"`
	StateClass                string `json:"state_class,omitempty"`
	SuggestedDisplayPrecision *int   `json:"suggested_display_precision,omitempty"`
	UniqueID                  string `json:"unique_id,omitempty"`
	UnitOfMeasurement         string `json:"unit_of_measurement,omitempty"`
	ValueTemplate             string `json:"value_template,omitempty"`
	JSONAttributesTopic       string `json:"json_attributes_topic,omitempty"`
	JSONAttributesTemplate    string `json:"json_attributes_template,omitempty"`

	// binary_sensor
	PayloadOn  string `json:"payload_on,omitempty"`
	PayloadOff string `json:"payload_off,omitempty"`

	// select
	CommandTopic    string   `json:"command_topic,omitempty"`
	CommandTemplate string   `json:"command_template,omitempty"`
	Options         []string `json:"options,omitempty"`
}
