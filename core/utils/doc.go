// Package utils provides loose type conversions for feed and database values
// whose concrete types depend on the producer.
package utils
