// Package errors provides string codes for error instantiation.

package errors

const (
	AMQPConnectionError          = "could not connect to AMQP"
	AMQPChannelOpeningError      = "could not open an AMQP channel"
	AMQPSettingQosError          = "could not set QoS"
	AMQPExchangeDeclarationError = "could not declare an exchange"
	AMQPQueueDeclarationError    = "could not declare a queue"
	AMQPQueueBindingError        = "could not bind a queue to an exchange"
	AMQPInitiationError          = "could not initialize AMQP"
	AMQPDisabledError            = "AMQP bus is disabled"
	AMQPPublishingError          = "could not publish a message"
	AMQPConsumingError           = "failed to start consuming messages from queue"
	AMQPAckError                 = "failed to acknowledge message"
	AMQPMessageProcessingError   = "failed to process message"
	AMQPSendingError             = "failed to send message"
	AMQPListeningError           = "failed to listen to queue"
	AMQPUnmarshallingError       = "failed to unmarshall message"
	AMQPMarshallingError         = "failed to marshall message"
	AMQPHandlerDeliveryError     = "failed to run delivery for AMQP-derived capture"
)
