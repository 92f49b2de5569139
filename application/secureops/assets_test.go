package secureops

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scriptgate-dev/scriptgate/domain/entities"
	"github.com/scriptgate-dev/scriptgate/internal/testutil"
)

func TestAssetRoundTrip(t *testing.T) {
	h := newHarness(t, harnessConfig{})
	ctx := context.Background()
	content := []byte{0x89, 0x50, 0x4e, 0x47, 0x00, 0x01}

	result := h.ops.PutAsset(ctx, testEditor, "images/logo.png", content)
	testutil.RequireSuccess(t, result)
	assert.Equal(t, len(content), result.Data["size"])

	result = h.ops.GetAsset(ctx, testEditor, "images/logo.png")
	testutil.RequireSuccess(t, result)
	assert.Equal(t, base64.StdEncoding.EncodeToString(content), result.Data["content"])
}

func TestDeleteAssetGatedSeparately(t *testing.T) {
	h := newHarness(t, harnessConfig{})
	ctx := context.Background()

	// A role that can write assets but not delete them.
	uploader := entities.NewUserContext("dave", entities.NewRole("uploader",
		entities.CapabilityReadAssets,
		entities.CapabilityWriteAssets,
	))

	testutil.RequireSuccess(t, h.ops.PutAsset(ctx, uploader, "images/a.png", []byte("x")))

	result := h.ops.DeleteAsset(ctx, uploader, "images/a.png")
	testutil.RequireFailure(t, result, entities.ErrKindCapabilityDenied)
	assert.Equal(t, 1, h.assets.Len())

	testutil.RequireSuccess(t, h.ops.DeleteAsset(ctx, testEditor, "images/a.png"))
	assert.Equal(t, 0, h.assets.Len())
}

func TestListAssets(t *testing.T) {
	h := newHarness(t, harnessConfig{})
	ctx := context.Background()

	testutil.RequireSuccess(t, h.ops.PutAsset(ctx, testEditor, "images/a.png", []byte("a")))
	testutil.RequireSuccess(t, h.ops.PutAsset(ctx, testEditor, "fonts/b.woff", []byte("b")))

	result := h.ops.ListAssets(ctx, testReader, "images/")
	testutil.RequireSuccess(t, result)
	assert.Equal(t, []string{"images/a.png"}, result.Data["keys"])
}

func TestTableRoundTrip(t *testing.T) {
	h := newHarness(t, harnessConfig{})
	ctx := context.Background()
	definition := `{"columns":[{"name":"id","type":"int"}]}`

	testutil.RequireSuccess(t, h.ops.UpsertTable(ctx, testEditor, "crm/contacts", definition))

	result := h.ops.GetTable(ctx, testReader, "crm/contacts")
	testutil.RequireSuccess(t, result)
	assert.Equal(t, definition, result.Data["definition"])

	result = h.ops.ListTables(ctx, testReader, "crm/")
	testutil.RequireSuccess(t, result)
	assert.Equal(t, []string{"crm/contacts"}, result.Data["keys"])

	testutil.RequireSuccess(t, h.ops.DeleteTable(ctx, testEditor, "crm/contacts"))
	assert.Equal(t, 0, h.tables.Len())
}

func TestTableWriteRequiresCapability(t *testing.T) {
	h := newHarness(t, harnessConfig{})

	result := h.ops.UpsertTable(context.Background(), testReader, "crm/contacts", "{}")
	testutil.RequireFailure(t, result, entities.ErrKindCapabilityDenied)
	require.Equal(t, 0, h.tables.Len())
}
