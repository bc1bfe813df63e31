package kafka

import (
	"Parley/internal/api/config"
	"time"

	"github.com/IBM/sarama"
)

// newSaramaConfig 统一初始化 sarama.Config
func newSaramaConfig(kafkaCfg config.KafkaConfig) *sarama.Config {
	c := sarama.NewConfig()
	c.ClientID = "parley"

	if kafkaCfg.Sasl.Enable {
		c.Net.SASL.Enable = true
		c.Net.SASL.Mechanism = sarama.SASLTypePlaintext
		c.Net.SASL.User = kafkaCfg.Sasl.Username
		c.Net.SASL.Password = kafkaCfg.Sasl.Password
	}

	c.Consumer.Return.Errors = true
	// 推送只关心启动之后的变更
	c.Consumer.Offsets.Initial = sarama.OffsetNewest

	if kafkaCfg.Consumer.SessionTimeout > 0 {
		c.Consumer.Group.Session.Timeout = time.Duration(kafkaCfg.Consumer.SessionTimeout) * time.Second
	}
	if kafkaCfg.Consumer.HeartbeatInterval > 0 {
		c.Consumer.Group.Heartbeat.Interval = time.Duration(kafkaCfg.Consumer.HeartbeatInterval) * time.Second
	}
	if kafkaCfg.Consumer.RebalanceTimeout > 0 {
		c.Consumer.Group.Rebalance.Timeout = time.Duration(kafkaCfg.Consumer.RebalanceTimeout) * time.Second
	}
	if kafkaCfg.Consumer.MaxProcessingTime > 0 {
		c.Consumer.MaxProcessingTime = time.Duration(kafkaCfg.Consumer.MaxProcessingTime) * time.Second
	}
	c.Consumer.Offsets.AutoCommit.Enable = true

	return c
}
