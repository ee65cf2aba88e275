// Package model 包含了应用的数据模型定义。
package model

// Garment 对应文档库 garments 集合中的一条藏品记录。
// 除重新向量化任务会原地覆盖 Embedding 外，本系统只读取它。
type Garment struct {
	ID                interface{} `bson:"_id,omitempty" json:"-"`
	Title             string      `bson:"title" json:"title"`
	ArtistDisplayName string      `bson:"artistDisplayName" json:"artistDisplayName"`
	PrimaryImage      string      `bson:"primaryImage" json:"primaryImage"`
	ObjectURL         string      `bson:"objectURL" json:"objectURL"`
	Embedding         []float32   `bson:"embedding,omitempty" json:"embedding,omitempty"`
}

// SearchHit 是检索结果的投影，Score 为后端给出的相似度，范围 [0,1]。
type SearchHit struct {
	Title             string  `bson:"title" json:"title"`
	ArtistDisplayName string  `bson:"artistDisplayName" json:"artistDisplayName"`
	PrimaryImage      string  `bson:"primaryImage" json:"primaryImage"`
	ObjectURL         string  `bson:"objectURL" json:"objectURL"`
	Score             float64 `bson:"score" json:"score"`
}

// Creator 返回用于展示的作者名，缺失时给出占位文本。
func (h SearchHit) Creator() string {
	if h.ArtistDisplayName == "" {
		return "an unknown artist"
	}
	return h.ArtistDisplayName
}
