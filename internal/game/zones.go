package game

// 地圖與區域資料
const (
	MapGarage = "garage"

	CanvasWidth  = 640.0
	CanvasHeight = 480.0
)

const (
	ZoneBureau      = "bureau"
	ZoneStock       = "stock"
	ZoneComptoir    = "comptoir"
	ZoneAtelier     = "atelier"
	ZonePont        = "pont"
	ZoneParking     = "parking"
	ZoneCafe        = "cafe"
	ZoneNettoyage   = "nettoyage"
	ZoneProduit     = "produit"
	ZoneInventaire1 = "inventaire1"
	ZoneInventaire2 = "inventaire2"
	ZoneInventaire3 = "inventaire3"
)

// RepairPoint 是機械師修復破壞的固定位置
var RepairPoint = Vec{X: 320, Y: 240}

var lobbySpawn = Vec{X: 120, Y: 120}

// Rect 以左上角與寬高描述矩形區域
type Rect struct {
	X, Y, W, H float64
}

// Contains 判斷座標是否落在矩形內（含邊界）
func (r Rect) Contains(p Vec) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// Zone 是地圖上具名的矩形區域
type Zone struct {
	Name string
	Rect Rect
}

// 區域依序比對，第一個命中者為準；盤點區較小且與大區域重疊，因此排在前面
var mapZones = map[string][]Zone{
	MapGarage: {
		{ZoneInventaire1, Rect{520, 120, 90, 60}},
		{ZoneInventaire2, Rect{520, 260, 90, 60}},
		{ZoneInventaire3, Rect{520, 380, 90, 60}},
		{ZoneBureau, Rect{60, 60, 120, 80}},
		{ZoneStock, Rect{460, 60, 140, 90}},
		{ZoneComptoir, Rect{260, 60, 140, 80}},
		{ZoneAtelier, Rect{60, 200, 160, 120}},
		{ZonePont, Rect{260, 200, 140, 120}},
		{ZoneParking, Rect{460, 200, 140, 120}},
		{ZoneCafe, Rect{60, 360, 140, 80}},
		{ZoneNettoyage, Rect{240, 360, 140, 80}},
		{ZoneProduit, Rect{420, 360, 180, 80}},
	},
}

// ZoneAt 回傳座標所在的區域名稱；不在任何區域時回傳 false
func ZoneAt(mapID string, p Vec) (string, bool) {
	for _, z := range mapZones[mapID] {
		if z.Rect.Contains(p) {
			return z.Name, true
		}
	}
	return "", false
}

func clampToCanvas(p Vec) Vec {
	return Vec{X: clamp(p.X, 0, CanvasWidth), Y: clamp(p.Y, 0, CanvasHeight)}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
