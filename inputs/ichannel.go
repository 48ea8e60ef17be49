package inputs

import "github.com/richinsley/feedbacktoy/gpu"

// IChannel is any texture source a pass can sample.
type IChannel interface {
	// Texture returns the texture to bind for this tick.
	Texture() gpu.Texture

	// ChannelRes returns the resolution of the channel as a vec3.
	ChannelRes() [3]float32

	// Destroy releases any resources held by the channel.
	Destroy()
}

var _ IChannel = (*ImageChannel)(nil)
