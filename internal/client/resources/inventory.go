package resources

import (
	"slices"
	"strings"

	"github.com/iudanet/infradash/internal/client/api"
	"github.com/iudanet/infradash/internal/models"
)

// Имена коллекций backend'а
const (
	DataCenters     = "data-centers"
	Rooms           = "rooms"
	Racks           = "racks"
	Baremetals      = "baremetals"
	K8sClusters     = "k8s-clusters"
	VirtualMachines = "virtual-machines"
	Tenants         = "tenants"
	VLANs           = "vlans"
	Users           = "users"
)

var collections = []string{
	DataCenters, Rooms, Racks, Baremetals, K8sClusters, VirtualMachines, Tenants, VLANs, Users,
}

// Names возвращает имена известных коллекций
func Names() []string {
	return slices.Clone(collections)
}

// Lookup возвращает путь коллекции по имени. Допускается имя с "/" по краям.
func Lookup(name string) (string, bool) {
	name = strings.Trim(name, "/")
	if !slices.Contains(collections, name) {
		return "", false
	}
	return "/" + name + "/", true
}

// Record элемент коллекции без схемы
type Record = map[string]any

// Inventory набор типизированных сервисов коллекций
type Inventory struct {
	DataCenters     *Service[models.DataCenter]
	Rooms           *Service[models.Room]
	Racks           *Service[models.Rack]
	Baremetals      *Service[models.Baremetal]
	K8sClusters     *Service[models.K8sCluster]
	VirtualMachines *Service[models.VirtualMachine]
	Tenants         *Service[models.Tenant]
	VLANs           *Service[models.VLAN]
	Users           *Service[models.User]

	client *api.Client
}

// NewInventory создает сервисы всех коллекций поверх одного клиента
func NewInventory(client *api.Client) *Inventory {
	return &Inventory{
		DataCenters:     New[models.DataCenter](client, DataCenters),
		Rooms:           New[models.Room](client, Rooms),
		Racks:           New[models.Rack](client, Racks),
		Baremetals:      New[models.Baremetal](client, Baremetals),
		K8sClusters:     New[models.K8sCluster](client, K8sClusters),
		VirtualMachines: New[models.VirtualMachine](client, VirtualMachines),
		Tenants:         New[models.Tenant](client, Tenants),
		VLANs:           New[models.VLAN](client, VLANs),
		Users:           New[models.User](client, Users),
		client:          client,
	}
}

// Generic сервис коллекции по имени с элементами без схемы
func (inv *Inventory) Generic(name string) (*Service[Record], bool) {
	path, ok := Lookup(name)
	if !ok {
		return nil, false
	}
	return New[Record](inv.client, path), true
}
