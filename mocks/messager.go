package mocks

import "glyco/notify"

type Messager struct {
	Channels map[string][]notify.MessageData
}

func (m *Messager) SendMessage(data notify.MessageData, chName string) (uint64, error) {
	if m.Channels == nil {
		m.Channels = make(map[string][]notify.MessageData)
	}
	m.Channels[chName] = append(m.Channels[chName], data)
	return uint64(len(m.Channels[chName])), nil
}
