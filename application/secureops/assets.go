package secureops

import (
	"context"
	"encoding/base64"

	"github.com/scriptgate-dev/scriptgate/application/validation"
	"github.com/scriptgate-dev/scriptgate/domain/entities"
	derrors "github.com/scriptgate-dev/scriptgate/domain/errors"
)

var (
	actAssetPut    = action{name: "asset_put", class: "assets", capability: entities.CapabilityWriteAssets, mutating: true}
	actAssetDelete = action{name: "asset_delete", class: "assets", capability: entities.CapabilityDeleteAssets, mutating: true}
	actAssetGet    = action{name: "asset_get", class: "assets", capability: entities.CapabilityReadAssets}
	actAssetList   = action{name: "asset_list", class: "assets", capability: entities.CapabilityReadAssets}
)

// PutAsset stores an asset blob under the key. Binary content crosses
// the guest boundary base64-encoded; the key is validated as a path.
func (o *Ops) PutAsset(ctx context.Context, uc entities.UserContext, key string, content []byte) entities.OpResult {
	return o.run(ctx, uc, actAssetPut, key, []payload{
		{value: key, class: validation.ClassPath, field: "key"},
	}, func(ctx context.Context) (map[string]any, error) {
		if err := o.deps.Assets.Upsert(ctx, key, content); err != nil {
			return nil, &derrors.UpstreamError{Err: err, Action: "asset_put", Target: key}
		}
		return map[string]any{"key": key, "size": len(content)}, nil
	})
}

// DeleteAsset removes an asset. Deletion is gated separately from
// writing: an Editor variant without DeleteAssets cannot destroy data
// it can still produce.
func (o *Ops) DeleteAsset(ctx context.Context, uc entities.UserContext, key string) entities.OpResult {
	return o.run(ctx, uc, actAssetDelete, key, []payload{
		{value: key, class: validation.ClassPath, field: "key"},
	}, func(ctx context.Context) (map[string]any, error) {
		if err := o.deps.Assets.Delete(ctx, key); err != nil {
			return nil, &derrors.UpstreamError{Err: err, Action: "asset_delete", Target: key}
		}
		return map[string]any{"key": key}, nil
	})
}

// GetAsset returns an asset blob, base64-encoded for the boundary.
func (o *Ops) GetAsset(ctx context.Context, uc entities.UserContext, key string) entities.OpResult {
	return o.run(ctx, uc, actAssetGet, key, []payload{
		{value: key, class: validation.ClassPath, field: "key"},
	}, func(ctx context.Context) (map[string]any, error) {
		content, err := o.deps.Assets.Get(ctx, key)
		if err != nil {
			return nil, &derrors.UpstreamError{Err: err, Action: "asset_get", Target: key}
		}
		return map[string]any{
			"key":     key,
			"content": base64.StdEncoding.EncodeToString(content),
		}, nil
	})
}

// ListAssets lists asset keys under the prefix.
func (o *Ops) ListAssets(ctx context.Context, uc entities.UserContext, prefix string) entities.OpResult {
	return o.run(ctx, uc, actAssetList, prefix, []payload{
		{value: prefix, class: validation.ClassPath, field: "prefix"},
	}, func(ctx context.Context) (map[string]any, error) {
		keys, err := o.deps.Assets.List(ctx, prefix)
		if err != nil {
			return nil, &derrors.UpstreamError{Err: err, Action: "asset_list", Target: prefix}
		}
		return map[string]any{"keys": keys}, nil
	})
}
