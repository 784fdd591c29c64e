package metrics

import "time"

// Mutation outcomes
const (
	OutcomeSuccess  = "success"
	OutcomeConflict = "conflict"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// RecordMutation counts one coordinator call
func (m *Metrics) RecordMutation(entity, operation, outcome string) {
	m.safeExecute("RecordMutation", func() {
		m.MutationsTotal.WithLabelValues(entity, operation, outcome).Inc()
	})
}

// IncrementVersionConflict counts a stale expected version
func (m *Metrics) IncrementVersionConflict(entity string) {
	m.safeExecute("IncrementVersionConflict", func() {
		m.VersionConflictsTotal.WithLabelValues(entity).Inc()
	})
}

// IncrementCompaction counts a sibling key rewrite
func (m *Metrics) IncrementCompaction(entity string) {
	m.safeExecute("IncrementCompaction", func() {
		m.CompactionsTotal.WithLabelValues(entity).Inc()
	})
}

// RecordAnnouncement counts an event that passed or failed the dedupe check
func (m *Metrics) RecordAnnouncement(eventType string, announced bool) {
	m.safeExecute("RecordAnnouncement", func() {
		if announced {
			m.EventsAnnouncedTotal.WithLabelValues(eventType).Inc()
		} else {
			m.EventsSuppressedTotal.WithLabelValues(eventType).Inc()
		}
	})
}

// RecordSinkDelivery records one notification delivery attempt
func (m *Metrics) RecordSinkDelivery(channel string, duration time.Duration, err error) {
	m.safeExecute("RecordSinkDelivery", func() {
		outcome := OutcomeSuccess
		if err != nil {
			outcome = OutcomeError
		}
		m.SinkDeliveriesTotal.WithLabelValues(channel, outcome).Inc()
		m.SinkDeliveryDuration.WithLabelValues(channel).Observe(duration.Seconds())
	})
}

// IncrementLedgerError counts a ledger failure
func (m *Metrics) IncrementLedgerError() {
	m.safeExecute("IncrementLedgerError", func() {
		m.LedgerErrorsTotal.Inc()
	})
}

// AddLedgerSwept counts expired dedupe records removed by a sweep
func (m *Metrics) AddLedgerSwept(n int64) {
	m.safeExecute("AddLedgerSwept", func() {
		m.LedgerSweptTotal.Add(float64(n))
	})
}

// SetEntitiesTotal sets the stored entity gauge for one kind
func (m *Metrics) SetEntitiesTotal(entity string, count int64) {
	m.safeExecute("SetEntitiesTotal", func() {
		m.EntitiesTotal.WithLabelValues(entity).Set(float64(count))
	})
}

// AddWebsocketConnections adjusts the connected viewer gauge by delta
func (m *Metrics) AddWebsocketConnections(delta int) {
	m.safeExecute("AddWebsocketConnections", func() {
		m.WebsocketConnections.Add(float64(delta))
	})
}
