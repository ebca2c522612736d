package frame

// Checksum 计算帧校验字节：对所有字节逐个异或
// 固件端使用同一算法（见 firmware.Crc8），两端必须逐位一致
func Checksum(data []byte) byte {
	var crc byte
	for _, b := range data {
		crc ^= b
	}
	return crc
}

// VerifyChecksum 验证校验和
// frame: 包含末尾校验字节的完整帧
func VerifyChecksum(frame []byte) error {
	if len(frame) < 1 {
		return ErrTooShort
	}
	last := len(frame) - 1
	if Checksum(frame[:last]) != frame[last] {
		return ErrBadChecksum
	}
	return nil
}
