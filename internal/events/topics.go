package events

// Topic constants for domain events emitted by the platform.
const (
	TopicTariffUpdated    = "tariff.updated"
	TopicShipmentCreated  = "shipment.created"
	TopicShipmentRepriced = "shipment.repriced"
)
