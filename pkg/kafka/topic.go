package kafka

import "fmt"

// TopicPrefix namespaces every topic published by the storefront.
const TopicPrefix = "storefront"

// Topic builds a fully-qualified topic name such as "storefront.order.paid".
func Topic(aggregate, action string) string {
	return fmt.Sprintf("%s.%s.%s", TopicPrefix, aggregate, action)
}
