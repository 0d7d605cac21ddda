package handler

import (
	"net/http"

	"github.com/dingban/dingban/internal/constraints"
)

// CatalogHandler 约束目录处理器
type CatalogHandler struct{}

// NewCatalogHandler 创建约束目录处理器
func NewCatalogHandler() *CatalogHandler {
	return &CatalogHandler{}
}

// Get 返回规划引擎支持的硬约束与软评分标准
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	catalog := constraints.GetCatalog()
	switch r.URL.Query().Get("type") {
	case "hard":
		catalog = constraints.HardConstraints()
	case "soft":
		catalog = constraints.SoftCriteria()
	}
	respondJSON(w, http.StatusOK, constraints.CatalogResponse{Catalog: catalog})
}
