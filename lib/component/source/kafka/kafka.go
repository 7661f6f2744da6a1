package kafka

import (
	"fmt"
	"sync"
	"time"

	"github.com/Shopify/sarama"
	"github.com/pkg/errors"

	"spl/lib/component"
	"spl/lib/eventtime"
	"spl/lib/log"
	"spl/lib/properties"
	"spl/spl"
)

var (
	TopicsProperty                = properties.NewRequiredProperty[[]string]("topics", "topics to consume")
	VersionProperty               = properties.NewProperty[string]("version", "kafka protocol version", "2.4.0")
	BrokersProperty               = properties.NewRequiredProperty[[]string]("brokers", "bootstrap brokers")
	ClientIdProperty              = properties.NewProperty[string]("client.id", "client id", "")
	GroupIdProperty               = properties.NewProperty[string]("group.id", "consumer group", "spl")
	OffsetsCommitIntervalProperty = properties.NewProperty[time.Duration]("offsets.commit.interval", "interval of offset auto commit", 5*time.Second)
	OffsetsInitialProperty        = properties.NewProperty[string]("offsets.initial", "newest or oldest", "oldest")

	SASLUserProperty     = properties.NewProperty[string]("sasl-username", "", "")
	SASLPasswordProperty = properties.NewProperty[string]("sasl-password", "", "")

	WatermarkLagProperty = properties.NewProperty[time.Duration]("watermark-lag", "watermark lag behind the newest message timestamp of a partition, negative disables watermarks", 5*time.Second)
)

func newConfig(p spl.Properties) (*sarama.Config, error) {
	config := sarama.NewConfig()
	version, err := sarama.ParseKafkaVersion(p.GetString(VersionProperty))
	if err != nil {
		return nil, errors.WithMessage(err, "invalid kafka version")
	}
	config.Version = version
	if user, password := p.GetString(SASLUserProperty), p.GetString(SASLPasswordProperty); user != "" && password != "" {
		config.Net.SASL.Enable = true
		config.Net.SASL.User = user
		config.Net.SASL.Password = password
	}
	if clientId := p.GetString(ClientIdProperty); clientId != "" {
		config.ClientID = clientId
	}
	config.Consumer.Return.Errors = true
	config.Consumer.Offsets.AutoCommit.Interval = p.GetDuration(OffsetsCommitIntervalProperty)
	switch initial := p.GetString(OffsetsInitialProperty); initial {
	case "oldest":
		config.Consumer.Offsets.Initial = sarama.OffsetOldest
	case "newest":
		config.Consumer.Offsets.Initial = sarama.OffsetNewest
	default:
		return nil, errors.Errorf("unknown %s %q", OffsetsInitialProperty.Name(), initial)
	}
	return config, nil
}

//watermarks tracks one generator per claimed partition, the source watermark is
//the minimum over the partitions
type watermarks struct {
	lag        time.Duration
	mutex      sync.Mutex
	generators map[string]*eventtime.Generator
	receiver   *eventtime.Receiver
}

func newWatermarks(lag time.Duration) *watermarks {
	return &watermarks{lag: lag, generators: map[string]*eventtime.Generator{}, receiver: eventtime.NewReceiver()}
}

func (w *watermarks) claim(key string) *eventtime.Generator {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	generator, ok := w.generators[key]
	if !ok {
		generator = eventtime.NewGenerator(w.lag)
		w.generators[key] = generator
		w.receiver.Expect(key)
	}
	return generator
}

func (w *watermarks) observe(key string, generator *eventtime.Generator, timestamp time.Time) (time.Time, bool) {
	generator.Observe(timestamp)
	wm, ok := generator.Next()
	if !ok {
		return time.Time{}, false
	}
	return w.receiver.Receive(key, wm)
}

type source struct {
	ctx           spl.Context
	logger        spl.Logger
	emitNext      spl.EmitNext
	topics        []string
	consumerGroup sarama.ConsumerGroup
	watermarks    *watermarks
}

func (s *source) Open(ctx spl.Context) error {
	s.ctx = ctx
	s.logger = log.Ctx(s.ctx)
	p := s.ctx.Properties()
	if lag := p.GetDuration(WatermarkLagProperty); lag >= 0 {
		s.watermarks = newWatermarks(lag)
	}
	config, err := newConfig(p)
	if err != nil {
		return err
	}
	s.topics = p.GetStringSlice(TopicsProperty)
	if s.consumerGroup, err = sarama.NewConsumerGroup(p.GetStringSlice(BrokersProperty), p.GetString(GroupIdProperty), config); err != nil {
		return errors.WithMessage(err, "can't create kafka consumer group")
	}
	go s.logErrors()
	return nil
}

func (s *source) Close() error {
	var err error
	for i := 1; i < 4; i++ {
		if err = s.consumerGroup.Close(); err == nil {
			return nil
		}
		s.logger.Warnw("close kafka consumer error, waiting 1 second.", "time", i, "err", err)
		time.Sleep(time.Second)
	}
	return errors.WithMessage(err, "can't close kafka consumer")
}

func (s *source) PropertiesDef() spl.PropertiesDef {
	return spl.PropertiesDef{
		TopicsProperty, VersionProperty, BrokersProperty, GroupIdProperty, OffsetsCommitIntervalProperty, OffsetsInitialProperty,
		ClientIdProperty, SASLUserProperty, SASLPasswordProperty, WatermarkLagProperty,
	}
}

//Collect consumes until the context is done, every rebalance starts a new Consume round
func (s *source) Collect(emitNext spl.EmitNext) error {
	s.emitNext = emitNext
	for s.ctx.Err() == nil {
		if err := s.consumerGroup.Consume(s.ctx.Ctx(), s.topics, s); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			return errors.WithMessage(err, "can't collect kafka")
		}
	}
	return nil
}

func (s *source) Setup(session sarama.ConsumerGroupSession) error {
	s.logger.Infow("consumer group session set up.", "claims", session.Claims(), "member", session.MemberID())
	return nil
}

func (s *source) Cleanup(session sarama.ConsumerGroupSession) error {
	s.logger.Infow("consumer group session clean up.", "generation", session.GenerationID())
	return nil
}

func (s *source) logErrors() {
	for err := range s.consumerGroup.Errors() {
		s.logger.Errorw("kafka consumer error.", "err", err)
	}
}

func toEvent(message *sarama.ConsumerMessage) *spl.Event {
	headers := make(map[string]any, len(message.Headers))
	for _, header := range message.Headers {
		headers[string(header.Key)] = string(header.Value)
	}
	return &spl.Event{
		Meta: map[string]any{
			"topic":     message.Topic,
			"partition": message.Partition,
			"offset":    message.Offset,
		},
		Message: map[string]any{
			"key":     string(message.Key),
			"value":   string(message.Value),
			"headers": headers,
		},
		Time: message.Timestamp,
	}
}

func (s *source) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	key := fmt.Sprintf("%s/%d", claim.Topic(), claim.Partition())
	var generator *eventtime.Generator
	if s.watermarks != nil {
		generator = s.watermarks.claim(key)
	}
	for message := range claim.Messages() {
		message := message
		s.emitNext(toEvent(message), func() {
			session.MarkMessage(message, "")
		})
		if generator == nil {
			continue
		}
		if wm, ok := s.watermarks.observe(key, generator, message.Timestamp); ok {
			s.emitNext(spl.NewWatermark(wm), nil)
		}
	}
	return nil
}

func New() spl.Source {
	return &source{}
}

func init() {
	component.RegisterNewSourceFunc("kafka", New)
}
