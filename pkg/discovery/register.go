package discovery

import (
	"fmt"
	"log"
	"net"

	"github.com/hashicorp/consul/api"
)

// Registration describes how the catalog HTTP service announces itself.
type Registration struct {
	Name       string
	Port       int
	HealthPath string
	Tags       []string
}

// ServiceID 使用 "服务名-IP-端口" 保证唯一
func ServiceID(name, ip string, port int) string {
	return fmt.Sprintf("%s-%s-%d", name, ip, port)
}

func buildRegistration(reg Registration, ip string) *api.AgentServiceRegistration {
	tags := reg.Tags
	if len(tags) == 0 {
		tags = []string{"catalog", "http"}
	}
	return &api.AgentServiceRegistration{
		ID:      ServiceID(reg.Name, ip, reg.Port),
		Name:    reg.Name,
		Port:    reg.Port,
		Address: ip,
		Tags:    tags,
		Check: &api.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d%s", ip, reg.Port, reg.HealthPath),
			Interval:                       "10s",
			Timeout:                        "5s",
			DeregisterCriticalServiceAfter: "30s", // 挂了30秒后自动注销
		},
	}
}

// RegisterService 将服务注册到 Consul, 返回注销函数
func RegisterService(reg Registration, consulAddr string) (func() error, error) {
	config := api.DefaultConfig()
	config.Address = consulAddr
	client, err := api.NewClient(config)
	if err != nil {
		return nil, err
	}

	localIP, err := getOutboundIP()
	if err != nil {
		return nil, err
	}

	registration := buildRegistration(reg, localIP)
	if err := client.Agent().ServiceRegister(registration); err != nil {
		return nil, err
	}

	log.Printf("Service Registered: %s (ID: %s) at %s:%d", reg.Name, registration.ID, localIP, reg.Port)
	return func() error {
		return client.Agent().ServiceDeregister(registration.ID)
	}, nil
}

// getOutboundIP 获取本机对外 IP
// 因为如果是 Docker 或局域网，不能注册 127.0.0.1
func getOutboundIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", err
	}
	defer conn.Close()

	localAddr := conn.LocalAddr().(*net.UDPAddr)
	return localAddr.IP.String(), nil
}
