// Copyright 2020 Qiniu Cloud (qiniu.com)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package utils

import (
	"log"
	"os"

	qconfig "github.com/qiniu/x/config"
)

var (
	DefaultConf Config
)

func InitConf(configFilePath string) {
	err := qconfig.LoadFile(&DefaultConf, configFilePath)
	if err != nil {
		log.Fatalf("failed to load config file, error %v", err)
	}
}

// MongoConfig mongo 数据库配置。
type MongoConfig struct {
	URI      string `json:"uri"`
	Database string `json:"database"`
}

// QiniuKeyPair 七牛APIaccess key/secret key配置。
type QiniuKeyPair struct {
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
}

// WebhookConfig 身份服务webhook配置。
// Secret 为共享签名密钥，带 whsec_ 前缀的base64字符串。
// DefaultRole 为首次同步用户的默认角色，留空时为 candidate。
// ToleranceSecond 为签名时间戳允许的偏移，0表示使用默认5分钟。
type WebhookConfig struct {
	Secret          string `json:"secret"`
	DefaultRole     string `json:"default_role"`
	ToleranceSecond int    `json:"tolerance_s"`
}

// QiniuRTCConfig 七牛RTC服务配置。AppID留空时使用内存mock，供本地开发与测试。
type QiniuRTCConfig struct {
	AppID string `json:"app_id"`
	// RTC room token的有效时间。
	RoomTokenExpireSecond int `json:"room_token_expire_s"`
}

// RongCloudIMConfig 融云IM服务配置。
type RongCloudIMConfig struct {
	AppKey    string `json:"app_key"`
	AppSecret string `json:"app_secret"`
}

// IMConfig IM服务配置。Provider留空或为 test 时不注册IM用户。
type IMConfig struct {
	Provider  string             `json:"provider"`
	RongCloud *RongCloudIMConfig `json:"rongcloud"`
}

// Config 后端配置。
type Config struct {
	// debug等级，为1时输出info/warn/error日志，为0除以上外还输出debug日志
	DebugLevel int    `json:"debug_level"`
	ListenAddr string `json:"listen_addr"`
	JwtKey     string `json:"jwt_key"`
	// ReconcileIntervalSecond 通话/面试状态对账任务运行间隔，0表示60秒。
	ReconcileIntervalSecond int             `json:"reconcile_interval_s"`
	Mongo                   *MongoConfig    `json:"mongo"`
	Webhook                 *WebhookConfig  `json:"webhook"`
	QiniuKeyPair            QiniuKeyPair    `json:"qiniu_key_pair"`
	RTC                     *QiniuRTCConfig `json:"rtc"`
	IM                      *IMConfig       `json:"im"`
}

// NewSample 返回样例配置。
func NewSample() *Config {
	return &Config{
		DebugLevel: 0,
		ListenAddr: ":8080",
		JwtKey:     os.Getenv("INTERVIEW_CUBE_JWT_KEY"),
		Mongo: &MongoConfig{
			URI:      "mongodb://localhost:27017",
			Database: "interview_cube_test",
		},
		Webhook: &WebhookConfig{
			Secret:      os.Getenv("CLERK_WEBHOOK_SECRET"),
			DefaultRole: "candidate",
		},
		RTC: &QiniuRTCConfig{
			AppID:                 os.Getenv("QINIU_RTC_APP_ID"),
			RoomTokenExpireSecond: 60,
		},
		IM: &IMConfig{
			Provider: "test",
			RongCloud: &RongCloudIMConfig{
				AppKey:    os.Getenv("RONGCLOUD_APP_KEY"),
				AppSecret: os.Getenv("RONGCLOUD_APP_SECRET"),
			},
		},
	}
}
