package models

import "time"

// Status общий статус инфраструктурных сущностей
type Status string

const (
	StatusActive         Status = "active"
	StatusInactive       Status = "inactive"
	StatusMaintenance    Status = "maintenance"
	StatusFull           Status = "full"
	StatusDecommissioned Status = "decommissioned"
)

// Base содержит поля, общие для всех сущностей backend'а
type Base struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ID        int64     `json:"id"`
}

// DataCenter центр обработки данных
type DataCenter struct {
	Base
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	PhaseName       string `json:"phase_name,omitempty"`
	Location        string `json:"location"`
	Status          Status `json:"status"`
	Phase           int64  `json:"phase"`
	Capacity        int    `json:"capacity"`
	PowerCapacity   int    `json:"power_capacity"`
	CoolingCapacity int    `json:"cooling_capacity"`
}

// Room помещение внутри ЦОД
type Room struct {
	Base
	Name             string `json:"name"`
	Description      string `json:"description,omitempty"`
	DataCenterName   string `json:"data_center_name,omitempty"`
	Dimensions       string `json:"dimensions"`
	TemperatureRange string `json:"temperature_range"`
	HumidityRange    string `json:"humidity_range"`
	Status           Status `json:"status"`
	DataCenter       int64  `json:"data_center"`
	Floor            int    `json:"floor"`
}

// Rack серверная стойка
type Rack struct {
	Base
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	RoomName       string `json:"room_name,omitempty"`
	Position       string `json:"position"`
	BGPRouterID    string `json:"bgp_router_id,omitempty"`
	Status         Status `json:"status"`
	Room           int64  `json:"room"`
	BGPASNumber    int64  `json:"bgp_as_number,omitempty"`
	HeightUnits    int    `json:"height_units"`
	PowerCapacity  int    `json:"power_capacity"`
	UsedUnits      int    `json:"used_units"`
	AvailableUnits int    `json:"available_units"`
}

// Baremetal физический сервер
type Baremetal struct {
	Base
	Name         string `json:"name"`
	SerialNumber string `json:"serial_number"`
	Status       Status `json:"status"`
	Model        int64  `json:"model"`
	Rack         int64  `json:"rack"`
	Group        int64  `json:"group,omitempty"`
	Tenant       int64  `json:"tenant,omitempty"`
}

// K8sCluster кластер Kubernetes
type K8sCluster struct {
	Base
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
	Status      Status `json:"status"`
	Tenant      int64  `json:"tenant,omitempty"`
}

// VirtualMachine виртуальная машина
type VirtualMachine struct {
	Base
	Name          string `json:"name"`
	Status        Status `json:"status"`
	Specification int64  `json:"specification"`
	Tenant        int64  `json:"tenant"`
	Baremetal     int64  `json:"baremetal,omitempty"`
}

// Tenant арендатор ресурсов
type Tenant struct {
	Base
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// VLAN сеть второго уровня
type VLAN struct {
	Base
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Subnet      string `json:"subnet"`
	Gateway     string `json:"gateway"`
	Status      Status `json:"status"`
	VLANID      int    `json:"vlan_id"`
	DHCPEnabled bool   `json:"dhcp_enabled"`
}
