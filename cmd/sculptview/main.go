// Command sculptview serves extracted meshes over WebSocket for live
// preview in a browser. Each client gets a sphere mesh on connect and can
// send parameter updates to re-extract.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"sync"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/gorilla/websocket"

	"github.com/gogpu/sculpt"
	_ "github.com/gogpu/sculpt/gpu"
)

type meshMessage struct {
	Type      string    `json:"type"`
	Positions []float32 `json:"positions"`
	Normals   []float32 `json:"normals"`
	Indices   []uint32  `json:"indices"`
}

type paramsMessage struct {
	Isovalue float32 `json:"isovalue"`
	Radius   float32 `json:"radius"`
	Noise    float32 `json:"noise"`
	Res      int     `json:"res"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	flag.Parse()

	http.HandleFunc("/ws", handleWebSocket)

	log.Printf("Serving meshes on ws://localhost%s/ws\n", *addr)
	log.Fatal(http.ListenAndServe(*addr, nil))
}

// session holds the per-connection extractor. The extractor (and its worker
// pool) is reused across messages and only rebuilt when the isovalue
// changes, since that is the one parameter fixed at construction.
type session struct {
	ex  *sculpt.Extractor
	iso float32
}

func (s *session) extractor(iso float32) *sculpt.Extractor {
	if s.ex == nil || s.iso != iso {
		if s.ex != nil {
			s.ex.Close()
		}
		s.ex = sculpt.New(
			sculpt.WithIsovalue(iso),
			sculpt.WithMeshSize(mgl32.Vec3{10, 10, 10}),
		)
		s.iso = iso
	}
	return s.ex
}

func (s *session) close() {
	if s.ex != nil {
		s.ex.Close()
	}
}

func handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("WebSocket upgrade error:", err)
		return
	}
	defer conn.Close()

	var writeMu sync.Mutex
	var s session
	defer s.close()

	params := paramsMessage{Isovalue: 0, Radius: 0.4, Noise: 0, Res: 32}
	sendMesh(conn, &writeMu, &s, params)

	for {
		var msg paramsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			log.Println("WebSocket read error:", err)
			return
		}
		if msg.Res > 0 {
			params.Res = msg.Res
		}
		if msg.Radius > 0 {
			params.Radius = msg.Radius
		}
		params.Isovalue = msg.Isovalue
		params.Noise = msg.Noise
		sendMesh(conn, &writeMu, &s, params)
	}
}

// sendMesh extracts with the given parameters and pushes the result to the
// client. Extraction runs as an async job so a slow grid never blocks the
// read loop's connection teardown.
func sendMesh(conn *websocket.Conn, writeMu *sync.Mutex, s *session, p paramsMessage) {
	size := sculpt.GridSize{X: p.Res, Y: p.Res, Z: p.Res}
	field := sphereField(size, p.Radius, p.Noise)

	job := s.extractor(p.Isovalue).Submit(field, size)
	mesh, err := job.Wait(context.Background())
	if err != nil {
		log.Println("Extraction error:", err)
		return
	}

	writeMu.Lock()
	defer writeMu.Unlock()
	if err := conn.WriteJSON(meshMessage{
		Type:      "mesh",
		Positions: mesh.Positions,
		Normals:   mesh.Normals,
		Indices:   mesh.Indices,
	}); err != nil {
		log.Println("WebSocket write error:", err)
	}
}

func sphereField(size sculpt.GridSize, radius, noise float32) []float32 {
	center := mgl32.Vec3{
		float32(size.X-1) / 2,
		float32(size.Y-1) / 2,
		float32(size.Z-1) / 2,
	}
	r := radius * float32(size.X)

	field := make([]float32, size.DensityCount())
	for z := 0; z < size.Z; z++ {
		for y := 0; y < size.Y; y++ {
			for x := 0; x < size.X; x++ {
				p := mgl32.Vec3{float32(x), float32(y), float32(z)}
				d := p.Sub(center).Len() - r
				if noise != 0 {
					d += noise * math32.Sin(0.9*p[0]) * math32.Sin(0.8*p[1]) * math32.Sin(0.7*p[2])
				}
				field[size.Index(x, y, z)] = d
			}
		}
	}
	return field
}
