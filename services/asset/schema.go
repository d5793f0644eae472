package asset

import (
	"strings"

	"smallbiznis-backoffice/pkg/validation"
)

const MaxAssignAssets = 50

type AssignAssetsInput struct {
	AccountSlug string   `json:"account_slug"`
	UserID      string   `json:"user_id" validate:"required,snowflake"`
	AssetIDs    []string `json:"asset_ids" validate:"required,min=1,max=50,unique,dive,required,snowflake"`
}

func ParseAssignAssets(in AssignAssetsInput) validation.Result[AssignAssetsInput] {
	in.UserID = strings.TrimSpace(in.UserID)
	ids := make([]string, 0, len(in.AssetIDs))
	for _, id := range in.AssetIDs {
		ids = append(ids, strings.TrimSpace(id))
	}
	in.AssetIDs = ids
	if details := validation.Struct(in); len(details) > 0 {
		return validation.Fail[AssignAssetsInput](details...)
	}
	return validation.Result[AssignAssetsInput]{Value: in}
}

type UnassignAssetInput struct {
	AccountSlug string `json:"account_slug"`
	AssetID     string `json:"asset_id" validate:"required,snowflake"`
}

func ParseUnassignAsset(in UnassignAssetInput) validation.Result[UnassignAssetInput] {
	in.AssetID = strings.TrimSpace(in.AssetID)
	if details := validation.Struct(in); len(details) > 0 {
		return validation.Fail[UnassignAssetInput](details...)
	}
	return validation.Result[UnassignAssetInput]{Value: in}
}

type FilterInput struct {
	Available bool `form:"available"`
}
