package datastores

import (
	"bytes"
	"context"
	"testing"

	"github.com/VictoriaMetrics/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetered(t *testing.T) {
	set := metrics.NewSet()
	store := NewMetered(NewInmem(), set)
	ctx := context.Background()

	_, err := Load(ctx, store, Calls)
	require.NoError(t, err)
	active, err := Contacts.Document(nil)
	require.NoError(t, err)
	deleted, err := DeletedContacts.Document(nil)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, active, deleted))

	var buf bytes.Buffer
	set.WritePrometheus(&buf)
	assert.Contains(t, buf.String(), `record_store_operations_total{op="load",collection="calls"} 1`)
	assert.Contains(t, buf.String(), `record_store_operations_total{op="save",collection="contacts+deleted"} 1`)
	assert.NotContains(t, buf.String(), `record_store_errors_total`)
}
