// upload_load 并发上传图片, 观察 upload_images 的 Sentinel 限流效果
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"sync"
	"time"

	"sneaker-catalog/pkg/config"
	"sneaker-catalog/pkg/jwt"
)

// 1x1 透明 PNG
var pixel = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

// 统计器
type counter struct {
	mu      sync.Mutex
	ok      int
	limited int
	failed  int
}

func (c *counter) add(status int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch status {
	case http.StatusOK:
		c.ok++
	case http.StatusTooManyRequests:
		c.limited++
	default:
		c.failed++
	}
}

func body() (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("images", "pixel.png")
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(pixel); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// upload 发起单个上传请求
func upload(client *http.Client, url, token string, n int, stats *counter) {
	buf, contentType, err := body()
	if err != nil {
		log.Printf("[%d] build body: %v", n, err)
		stats.add(0)
		return
	}
	req, _ := http.NewRequest(http.MethodPost, url, buf)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		log.Printf("[%d] 请求失败: %v", n, err)
		stats.add(0)
		return
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var result map[string]interface{}
	_ = json.Unmarshal(raw, &result)
	log.Printf("[%d] %d %v", n, resp.StatusCode, result["msg"])
	stats.add(resp.StatusCode)
}

func main() {
	configPath := flag.String("config", ".", "directory containing config.yaml")
	base := flag.String("url", "http://localhost:8000", "catalog base url")
	shoeID := flag.Uint("shoe", 1, "shoe id to upload to")
	userID := flag.Int64("user", 1, "user id to sign the token for")
	total := flag.Int("n", 50, "concurrent uploads")
	flag.Parse()

	c, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	// token 必须与服务使用同一个 jwt.secret
	token, err := jwt.NewManager(c.JWT).GenerateToken(*userID, "load-test", jwt.TypeAccess)
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}

	url := fmt.Sprintf("%s/api/shoes/%d/upload_images/", *base, *shoeID)
	client := &http.Client{Timeout: 10 * time.Second}
	stats := &counter{}

	fmt.Printf("开始上传测试, 并发数: %d, QPS 限制: %v\n", *total, c.RateLimit.UploadQPS)
	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(*total)
	for i := 0; i < *total; i++ {
		go func(n int) {
			defer wg.Done()
			upload(client, url, token, n, stats)
		}(i)
	}
	wg.Wait()

	fmt.Printf("测试结束, 耗时: %v\n", time.Since(start))
	fmt.Printf("成功: %d, 被限流: %d, 其他失败: %d\n", stats.ok, stats.limited, stats.failed)
}
