//go:build !ecs_shipping

package ecs

const shipping = false
