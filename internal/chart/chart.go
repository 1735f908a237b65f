// Package chart 把统计结果绘制为 PNG 图片，供仪表盘直接引用。
package chart

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"github.com/deptflow/internal/stats"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// ErrNoData 表示没有可绘制的数据
var ErrNoData = errors.New("no data to chart")

var (
	background = color.RGBA{0xff, 0xff, 0xff, 0xff}
	axisColor  = color.RGBA{0x55, 0x55, 0x55, 0xff}
	gridColor  = color.RGBA{0xe5, 0xe5, 0xe5, 0xff}
	barColor   = color.RGBA{0x34, 0x98, 0xdb, 0xff}
	lineColor  = color.RGBA{0x2e, 0xcc, 0x71, 0xff}
	missColor  = color.RGBA{0xeb, 0xed, 0xf0, 0xff}
	doneColor  = color.RGBA{0x21, 0x6e, 0x39, 0xff}
	textColor  = color.RGBA{0x33, 0x33, 0x33, 0xff}
)

const (
	chartWidth  = 640
	chartHeight = 320
	marginLeft  = 48
	marginRight = 16
	marginTop   = 28
	marginBot   = 32
)

// plot 是坐标区域，纵轴固定为 0..1
type plot struct {
	img                      *image.RGBA
	left, top, right, bottom int
}

func newPlot(title string) *plot {
	img := image.NewRGBA(image.Rect(0, 0, chartWidth, chartHeight))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: background}, image.Point{}, draw.Src)

	p := &plot{
		img:    img,
		left:   marginLeft,
		top:    marginTop,
		right:  chartWidth - marginRight,
		bottom: chartHeight - marginBot,
	}
	drawText(img, marginLeft, 18, title)

	for _, frac := range []float64{0, 0.25, 0.5, 0.75, 1} {
		y := p.y(frac)
		hline(img, p.left, p.right, y, gridColor)
		drawText(img, 6, y+4, fmt.Sprintf("%3.0f%%", frac*100))
	}
	vline(img, p.left, p.top, p.bottom, axisColor)
	hline(img, p.left, p.right, p.bottom, axisColor)
	return p
}

func (p *plot) y(frac float64) int {
	frac = math.Max(0, math.Min(1, frac))
	return p.bottom - int(math.Round(frac*float64(p.bottom-p.top)))
}

// WeeklyPatternPNG 绘制周一到周日的平均完成率柱状图，无样本的日子只画空框。
func WeeklyPatternPNG(w io.Writer, pattern []stats.WeekdayRate) error {
	if len(pattern) == 0 {
		return ErrNoData
	}

	p := newPlot("Completion by weekday")
	slot := (p.right - p.left) / len(pattern)
	barWidth := slot * 3 / 5

	for i, day := range pattern {
		x0 := p.left + i*slot + (slot-barWidth)/2
		x1 := x0 + barWidth
		if day.Rate == nil {
			outline(p.img, image.Rect(x0, p.y(1), x1, p.bottom), gridColor)
		} else {
			fill(p.img, image.Rect(x0, p.y(*day.Rate), x1, p.bottom), barColor)
		}
		label := day.Name
		if len(label) > 3 {
			label = label[:3]
		}
		drawText(p.img, x0+barWidth/2-len(label)*7/2, p.bottom+16, label)
	}

	return png.Encode(w, p.img)
}

// DailyRatePNG 绘制每日完成率折线图。
func DailyRatePNG(w io.Writer, rates []stats.DailyRate) error {
	if len(rates) == 0 {
		return ErrNoData
	}

	p := newPlot("Daily completion rate")
	width := p.right - p.left
	xAt := func(i int) int {
		if len(rates) == 1 {
			return p.left + width/2
		}
		return p.left + i*width/(len(rates)-1)
	}

	prevX, prevY := xAt(0), p.y(rates[0].Rate)
	for i, rate := range rates {
		x, y := xAt(i), p.y(rate.Rate)
		if i > 0 {
			line(p.img, prevX, prevY, x, y, lineColor)
		}
		fill(p.img, image.Rect(x-2, y-2, x+3, y+3), lineColor)
		prevX, prevY = x, y
	}

	first := rates[0].Date.Format("2006-01-02")
	drawText(p.img, p.left, p.bottom+16, first)
	if len(rates) > 1 {
		last := rates[len(rates)-1].Date.Format("2006-01-02")
		drawText(p.img, p.right-len(last)*7, p.bottom+16, last)
	}

	return png.Encode(w, p.img)
}

const (
	cellSize = 14
	cellGap  = 3
)

type isoWeek struct{ year, week int }

// HeatmapPNG 以 ISO 周为列、星期几为行绘制完成热力图。
func HeatmapPNG(w io.Writer, cells []stats.HeatmapCell) error {
	if len(cells) == 0 {
		return ErrNoData
	}

	columns := make(map[isoWeek]int)
	var order []isoWeek
	for _, cell := range cells {
		key := isoWeek{cell.Year, cell.Week}
		if _, ok := columns[key]; !ok {
			columns[key] = len(order)
			order = append(order, key)
		}
	}

	labelWidth := 32
	width := labelWidth + len(order)*(cellSize+cellGap) + marginRight
	height := marginTop + 7*(cellSize+cellGap) + 8

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: background}, image.Point{}, draw.Src)
	drawText(img, 4, 18, "Heatmap")

	for row, name := range []string{"Mon", "", "Wed", "", "Fri", "", "Sun"} {
		if name != "" {
			drawText(img, 4, marginTop+row*(cellSize+cellGap)+11, name)
		}
	}

	for _, cell := range cells {
		col := columns[isoWeek{cell.Year, cell.Week}]
		x0 := labelWidth + col*(cellSize+cellGap)
		y0 := marginTop + cell.Weekday*(cellSize+cellGap)
		c := missColor
		if cell.Completed {
			c = doneColor
		}
		fill(img, image.Rect(x0, y0, x0+cellSize, y0+cellSize), c)
	}

	return png.Encode(w, img)
}

func drawText(img draw.Image, x, y int, s string) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(textColor),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func fill(img *image.RGBA, r image.Rectangle, c color.Color) {
	draw.Draw(img, r.Intersect(img.Bounds()), &image.Uniform{C: c}, image.Point{}, draw.Src)
}

func outline(img *image.RGBA, r image.Rectangle, c color.Color) {
	hline(img, r.Min.X, r.Max.X, r.Min.Y, c)
	hline(img, r.Min.X, r.Max.X, r.Max.Y-1, c)
	vline(img, r.Min.X, r.Min.Y, r.Max.Y, c)
	vline(img, r.Max.X-1, r.Min.Y, r.Max.Y, c)
}

func hline(img *image.RGBA, x0, x1, y int, c color.Color) {
	for x := x0; x < x1; x++ {
		img.Set(x, y, c)
	}
}

func vline(img *image.RGBA, x, y0, y1 int, c color.Color) {
	for y := y0; y < y1; y++ {
		img.Set(x, y, c)
	}
}

// line 使用 Bresenham 算法画线
func line(img *image.RGBA, x0, y0, x1, y1 int, c color.Color) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		img.Set(x0, y0, c)
		img.Set(x0, y0+1, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
